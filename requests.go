package rubix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Routes of the inference server's JSON REST contract.
const (
	PredictionsPath   = "/model/predictions"
	ProbabilitiesPath = "/model/probabilities"
	ScoresPath        = "/model/scores"
)

const (
	mimeJSON = "application/json"

	headerAccept      = "Accept"
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"
)

// operation binds a client call to its route and the field that carries its
// result inside the data payload.
type operation struct {
	name  string
	path  string
	field string
}

var (
	opPredict = operation{name: "predict", path: PredictionsPath, field: "predictions"}
	opProba   = operation{name: "proba", path: ProbabilitiesPath, field: "probabilities"}
	opScore   = operation{name: "score", path: ScoresPath, field: "scores"}
)

var errNilDataset = errors.New("rubix: dataset is nil")

// QueryRequest is the body shared by the predict, proba and score routes.
type QueryRequest struct {
	Samples [][]any `json:"samples"`
}

// NewQueryRequest extracts the samples of ds into a request body.
func NewQueryRequest(ds Dataset) (QueryRequest, error) {
	if ds == nil {
		return QueryRequest{}, errNilDataset
	}
	samples := ds.Samples()
	if samples == nil {
		samples = [][]any{}
	}
	return QueryRequest{Samples: samples}, nil
}

// newJSONRequest builds a POST carrying body as JSON with the fixed client
// headers. GetBody is populated so the request can be re-sent.
func newJSONRequest(ctx context.Context, url string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypeEncode,
			Message:   "failed to encode request body",
			Cause:     err,
			Method:    http.MethodPost,
			URL:       url,
			Timestamp: time.Now(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypeTransport,
			Message:   "failed to build request",
			Cause:     err,
			Method:    http.MethodPost,
			URL:       url,
			Timestamp: time.Now(),
		}
	}
	req.Header.Set(headerUserAgent, UserAgent())
	req.Header.Set(headerAccept, mimeJSON)
	req.Header.Set(headerContentType, mimeJSON)
	return req, nil
}
