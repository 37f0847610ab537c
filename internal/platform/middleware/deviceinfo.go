package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// DeviceInfo summarizes the scanning device that issued a request. It ends up
// on audit events so operators can tell which kiosk or tablet produced a scan.
type DeviceInfo struct {
	Name    string
	OS      string
	Browser string
}

type deviceInfoKey struct{}

// Device parses the User-Agent header into DeviceInfo and stores it on the
// request context. Requests without a User-Agent pass through untouched.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("User-Agent")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		ua := useragent.New(raw)
		browser, version := ua.Browser()
		info := DeviceInfo{
			Name:    ua.Platform(),
			OS:      ua.OS(),
			Browser: browser + " " + version,
		}

		ctx := context.WithValue(r.Context(), deviceInfoKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDeviceInfo retrieves parsed device info from the context, if present.
func GetDeviceInfo(ctx context.Context) (DeviceInfo, bool) {
	info, ok := ctx.Value(deviceInfoKey{}).(DeviceInfo)
	return info, ok
}
