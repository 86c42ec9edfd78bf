package web

import (
	"encoding/json"
	"net/http"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/codegen"
)

// CodegenHandler serves POST /api/generate-code.
type CodegenHandler struct {
	generator *codegen.Generator
}

// NewCodegenHandler creates the handler.
func NewCodegenHandler() *CodegenHandler {
	return &CodegenHandler{generator: codegen.NewGenerator()}
}

// ServeHTTP generates Playwright test code from a structured test plan.
func (h *CodegenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req codegen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	resp, err := h.generator.Generate(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
