package handle_resources

import (
	"context"
	"errors"
	"net/http"

	"github.com/KincaidYang/next-whois/rdap_tools/structs"
	"github.com/KincaidYang/next-whois/utils"
	"github.com/gin-gonic/gin"
)

// Resolver answers one lookup. lookup_tools.Service is the production implementation.
type Resolver interface {
	Lookup(ctx context.Context, query string) (structs.LookupEnvelope, error)
}

// failureBody is what a failed lookup renders: the error and whatever raw text came back.
type failureBody struct {
	Time            float64 `json:"time"`
	Status          bool    `json:"status"`
	Error           string  `json:"error"`
	RawWhoisContent string  `json:"rawWhoisContent,omitempty"`
	RawRdapContent  string  `json:"rawRdapContent,omitempty"`
}

// LookupHandler handles GET /api/lookup?query=...
type LookupHandler struct {
	resolver Resolver
}

// NewLookupHandler returns a handler backed by resolver.
func NewLookupHandler(resolver Resolver) *LookupHandler {
	return &LookupHandler{resolver: resolver}
}

// HandleLookup writes the envelope with 200 on success, 500 when the lookup failed and
// 400 when no query was given.
func (h *LookupHandler) HandleLookup(c *gin.Context) {
	query := c.Query("query")

	env, err := h.resolver.Lookup(c.Request.Context(), query)
	if errors.Is(err, utils.ErrQueryRequired) {
		utils.HandleHTTPError(c, utils.ErrorTypeBadRequest, "Query is required")
		return
	}
	if err != nil {
		utils.HandleHTTPError(c, utils.ErrorTypeInternalServer, err.Error())
		return
	}

	if !env.Status {
		c.JSON(http.StatusInternalServerError, failureBody{
			Time:            env.Time,
			Status:          false,
			Error:           env.Error,
			RawWhoisContent: env.RawWhoisContent,
			RawRdapContent:  env.RawRdapContent,
		})
		return
	}

	c.Header("Cache-Control", utils.LookupCacheControl)
	c.JSON(http.StatusOK, env)
}
