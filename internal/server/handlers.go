package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/codec"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/monitoring"
	"github.com/polarcraft/polarstudio/internal/optics"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
	"github.com/polarcraft/polarstudio/internal/version"
)

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Record  int    `json:"record"`
}

// DecodeResponse is returned by /api/decode.
type DecodeResponse struct {
	Token      codec.Token       `json:"token"`
	Components []benchfile.Entry `json:"components"`
	Readings   []optics.Reading  `json:"readings"`
}

// ParamInfo describes one parameter in /api/kinds.
type ParamInfo struct {
	Name    string  `json:"name"`
	Key     string  `json:"key"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// KindInfo describes one component kind in /api/kinds.
type KindInfo struct {
	Tag         string      `json:"tag"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Params      []ParamInfo `json:"params"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	monitoring.HealthResponse
	Version       string `json:"version"`
	FormatVersion int    `json:"format_version"`
	Kinds         int    `json:"kinds"`
	ShareOrigin   string `json:"share_origin"`
}

// HandleHealth runs the health checks and reports build information. An
// unhealthy server answers 503.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		HealthResponse: s.health.GetHealth(r.Context()),
		Version:        version.GetShortVersion(),
		FormatVersion:  version.FormatVersion,
		Kinds:          s.registry.Len(),
		ShareOrigin:    s.builder.Origin(),
	}

	status := http.StatusOK
	if health.Status == monitoring.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, health)
}

// HandleMetrics returns a snapshot of the server metrics.
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, r, http.StatusOK, s.metrics.Collector().GatherMetrics())
}

// HandleKinds lists the registry.
func (s *Server) HandleKinds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, r, http.StatusOK, KindInfos(s.registry.Kinds(), requestLanguage(r)))
}

// HandleDecode decodes ?setup=T, or a full share link in ?link=, and
// returns the bench with its detector readings.
func (s *Server) HandleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := codec.Token(r.URL.Query().Get(share.SetupParam))
	if link := r.URL.Query().Get("link"); link != "" {
		parsed, err := share.ParseLink(link)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		token = parsed
	}

	op := logging.StartOperation(s.logger, "decode")
	state, err := s.decoder.Decode(token)
	s.metrics.TokenDecoded(err)
	if err != nil {
		op.EndWithError(r.Context(), err, "token", logging.SanitizeForLog(string(token)))
		s.writeError(w, r, err)
		return
	}
	op.End(r.Context(), "components", len(state))

	s.writeJSON(w, r, http.StatusOK, DecodeResponse{
		Token:      token,
		Components: benchfile.ToDocument(state).Components,
		Readings:   optics.Trace(state).Readings,
	})
}

// HandleShare builds the share link for a posted bench document.
func (s *Server) HandleShare(w http.ResponseWriter, r *http.Request) {
	state, ok := s.readBench(w, r)
	if !ok {
		return
	}

	op := logging.StartOperation(s.logger, "encode")
	link := s.builder.Build(state)
	op.End(r.Context(), "components", len(state), "length", link.Length)
	s.metrics.LinkBuilt(link.Length, link.WithinLimit)

	if !link.WithinLimit {
		s.logger.Warn(r.Context(), nil, "Share link exceeds length limit",
			"length", link.Length,
			"limit", link.Limit)
	}

	s.writeJSON(w, r, http.StatusOK, link)
}

// HandleEstimate returns the estimated link length for a posted bench
// document without encoding it.
func (s *Server) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	state, ok := s.readBench(w, r)
	if !ok {
		return
	}

	s.metrics.EstimateServed("http")
	s.writeJSON(w, r, http.StatusOK, s.builder.Preview(state))
}

func (s *Server) readBench(w http.ResponseWriter, r *http.Request) (bench.State, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}

	state, err := s.parser.Parse(data, benchfile.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}

	return state, true
}

// KindInfos converts registry kinds to their listing form. Titles are
// cased for lang.
func KindInfos(kinds []*registry.Kind, lang language.Tag) []KindInfo {
	title := cases.Title(lang)
	out := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		info := KindInfo{
			Tag:         k.Tag,
			Name:        k.Name,
			Title:       title.String(k.Name),
			Description: k.Description,
			Params:      make([]ParamInfo, 0, len(k.Params)),
		}
		for _, p := range k.Params {
			info.Params = append(info.Params, ParamInfo{
				Name:    p.Name,
				Key:     p.Key,
				Unit:    p.Unit,
				Min:     p.Min,
				Max:     p.Max,
				Default: p.Default,
			})
		}
		out = append(out, info)
	}
	return out
}

// StatusFor maps an error to its HTTP status: a future format is
// unprocessable, other token and input errors are bad requests.
func StatusFor(err error) int {
	var se *studioerrors.StudioError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}

	switch se.Type {
	case studioerrors.ErrorTypeFormat:
		return http.StatusUnprocessableEntity
	case studioerrors.ErrorTypeMalformed, studioerrors.ErrorTypeUnknown, studioerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the response body for err. Validation failures carry
// their own field messages; every other kind gets the localized message.
func errorBody(err error, lang language.Tag) ErrorBody {
	body := ErrorBody{
		Kind:    string(studioerrors.ErrorTypeInternal),
		Code:    studioerrors.ErrCodeInternalError,
		Message: studioerrors.UserMessage(err, lang),
		Record:  studioerrors.RecordOf(err),
	}

	var se *studioerrors.StudioError
	if errors.As(err, &se) {
		body.Kind = string(se.Type)
		body.Code = se.Code
		if se.Type == studioerrors.ErrorTypeValidation {
			body.Message = se.Message
		}
	}

	return body
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errHandler.Handle(r.Context(), err)

	s.writeJSON(w, r, StatusFor(err), errorBody(err, requestLanguage(r)))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode response", "path", r.URL.Path)
	}
}

func requestLanguage(r *http.Request) language.Tag {
	return studioerrors.MatchLanguage(r.Header.Get("Accept-Language"))
}
