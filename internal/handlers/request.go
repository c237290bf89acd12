package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/MonkyMars/gecho"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v, answering 400 itself when that fails
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		gecho.BadRequest(w).WithMessage("Request body is required").Send()
		return false
	}
	if err != nil {
		gecho.BadRequest(w).WithMessage(fmt.Sprintf("Could not parse request body: %s", err.Error())).Send()
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be left out entirely
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		gecho.BadRequest(w).WithMessage(fmt.Sprintf("Could not read request body: %s", err.Error())).Send()
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		gecho.BadRequest(w).WithMessage(fmt.Sprintf("Could not parse request body: %s", err.Error())).Send()
		return false
	}
	return true
}

// pathID parses the named path value as a database id, answering 400 itself when that fails
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	value := r.PathValue(name)
	id, err := strconv.ParseUint(value, 10, 0)
	if err != nil || id == 0 {
		gecho.BadRequest(w).WithMessage(fmt.Sprintf("Could not parse '%s' as id", value)).Send()
		return 0, false
	}
	return uint(id), true
}
