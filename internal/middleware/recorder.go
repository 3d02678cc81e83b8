package middleware

import "net/http"

// responseRecorder はレスポンスのステータスコードと本文のバイト数を記録する。
// 最初に確定したステータスコードだけを保持する。
type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap はhttp.ResponseControllerが元のResponseWriterに到達できるようにする。
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// headerWritten はwがレスポンスヘッダーを送信済みかを返す。記録できない場合はfalse。
func headerWritten(w http.ResponseWriter) bool {
	rec, ok := w.(*responseRecorder)
	return ok && rec.wroteHeader
}
