package llm

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// StatusCode extracts the HTTP status code from a provider error, unwrapping
// each SDK's error type. ok is false when err carries no status (network
// failures, cancellation, local errors).
func StatusCode(err error) (code int, ok bool) {
	var oaiAPI *openai.APIError
	if errors.As(err, &oaiAPI) && oaiAPI.HTTPStatusCode != 0 {
		return oaiAPI.HTTPStatusCode, true
	}
	var oaiReq *openai.RequestError
	if errors.As(err, &oaiReq) && oaiReq.HTTPStatusCode != 0 {
		return oaiReq.HTTPStatusCode, true
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) && antErr.StatusCode != 0 {
		return antErr.StatusCode, true
	}
	var genErr genai.APIError
	if errors.As(err, &genErr) && genErr.Code != 0 {
		return genErr.Code, true
	}
	var genErrPtr *genai.APIError
	if errors.As(err, &genErrPtr) && genErrPtr.Code != 0 {
		return genErrPtr.Code, true
	}
	return 0, false
}
