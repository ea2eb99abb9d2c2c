package httpadapter

import (
	"io"
	"net/http"

	"parkpulse/internal/observability"
)

// proxyTo relays a GET request to the given upstream route, forwarding the
// query string verbatim and echoing the upstream's status code and headers.
// The only header added is a permissive CORS grant so the browser UI can call
// the gateway from any origin. Transport failures yield 502 with an empty
// body; no retry, no rewriting.
func (s *Server) proxyTo(target string, client *http.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		proxyURL := target
		if r.URL.RawQuery != "" {
			proxyURL += "?" + r.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, proxyURL, nil)
		if err != nil {
			s.metrics.ProxyRequests.WithLabelValues(r.URL.Path, observability.OutcomeError).Inc()
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			s.logger.Warn("proxy upstream unreachable", "target", target, "error", err)
			s.metrics.ProxyRequests.WithLabelValues(r.URL.Path, observability.OutcomeError).Inc()
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			s.logger.Warn("proxy body relay interrupted", "target", target, "error", err)
		}
		s.metrics.ProxyRequests.WithLabelValues(r.URL.Path, observability.OutcomeRelayed).Inc()
	}
}
