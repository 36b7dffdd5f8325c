package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/easyathlete/internal/telemetry/tracing"
	"github.com/2beens/easyathlete/pkg"
)

const AdminSecretHeader = "X-EASYATHLETE-ADMIN"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=middleware_test

type adminSecretChecker interface {
	AdminSecretValid(secret string) bool
}

type AdminAuthHandler struct {
	checker adminSecretChecker
}

func NewAdminAuthHandler(checker adminSecretChecker) *AdminAuthHandler {
	return &AdminAuthHandler{
		checker: checker,
	}
}

// AuthCheck lets through only requests carrying the admin secret header.
func (h *AdminAuthHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.adminAuth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			secret := r.Header.Get(AdminSecretHeader)
			if secret == "" {
				log.Tracef("[missing admin secret] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-admin-secret")
				return
			}

			if !h.checker.AdminSecretValid(secret) {
				reqIP, _ := pkg.ReadUserIP(r)
				log.Warnf("[invalid admin secret] unauthorized => %s from %s", r.URL.Path, reqIP)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-admin-secret")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
