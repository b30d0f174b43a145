package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// ResponseTime stamps every response with an X-Response-Time header holding
// the server-side handling duration in milliseconds. The header is written
// just before the status line, the last point it can still be set.
func ResponseTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &timedWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(tw, r)
		if !tw.wroteHeader {
			tw.stamp()
		}
	})
}

type timedWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timedWriter) stamp() {
	elapsed := time.Since(w.start)
	w.Header().Set("X-Response-Time", fmt.Sprintf("%dms", elapsed.Milliseconds()))
}

func (w *timedWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.stamp()
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *timedWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
