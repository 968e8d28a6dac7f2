package router

import (
	"net/http"

	"backupd/app/controllers"
	"backupd/app/middleware"
)

func NewRouter(authCtrl *controllers.AuthController, backupCtrl *controllers.BackupController, intervalCtrl *controllers.IntervalController, mw *middleware.Auth) http.Handler {
	mux := http.NewServeMux()

	// public
	mux.HandleFunc("/login", authCtrl.Login)

	// token-guarded job management
	mux.Handle("/backups", mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			backupCtrl.List(w, r)
		case http.MethodPost:
			backupCtrl.Create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/backups/get", mw.RequireAuth(http.HandlerFunc(backupCtrl.Get)))
	mux.Handle("/backups/update", mw.RequireAuth(http.HandlerFunc(backupCtrl.Update)))
	mux.Handle("/backups/job", mw.RequireAuth(http.HandlerFunc(backupCtrl.JobStatus)))
	mux.Handle("/intervals", mw.RequireAuth(http.HandlerFunc(intervalCtrl.List)))

	// destructive edits are admin-only
	mux.Handle("/backups/delete", mw.RequireAdmin(http.HandlerFunc(backupCtrl.Delete)))

	return mux
}
