package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echoface/mediation-adapter/internal/mediation"
	"github.com/echoface/mediation-adapter/pkg/bridge"
)

// Kinds reported for failures that are not partner errors.
const (
	kindAbandoned      = "abandoned"
	kindBadRequest     = "bad_request"
	kindUnknownPartner = "unknown_partner"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

var kindStatus = map[mediation.ErrorKind]int{
	mediation.PartnerError:          http.StatusBadGateway,
	mediation.InvalidConfiguration:  http.StatusBadRequest,
	mediation.NoFill:                http.StatusUnprocessableEntity,
	mediation.AdServerError:         http.StatusBadGateway,
	mediation.NoConnectivity:        http.StatusBadGateway,
	mediation.InitializationFailure: http.StatusServiceUnavailable,
	mediation.InvalidPlacement:      http.StatusBadRequest,
	mediation.AdNotReady:            http.StatusConflict,
	mediation.AdNotFound:            http.StatusNotFound,
	mediation.UnsupportedFormat:     http.StatusBadRequest,
}

// errorResponse maps err to a status code and body.
func errorResponse(err error) (int, ErrorBody) {
	if bridge.IsAbandoned(err) {
		return http.StatusGatewayTimeout, ErrorBody{Kind: kindAbandoned, Message: err.Error(), Retryable: true}
	}

	kind, _ := mediation.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusBadGateway
	}
	return status, ErrorBody{Kind: kind.String(), Message: err.Error(), Retryable: kind.Retryable()}
}

func abortWithError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func abortBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Kind: kindBadRequest, Message: err.Error()})
}
