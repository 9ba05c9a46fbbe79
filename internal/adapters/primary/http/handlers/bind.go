package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"model-promotion-service/internal/core/domain"
)

var errEmptyBody = errors.New("request body is required")

// bindRecordJSON decodes a request carrying records. Unknown keys are
// rejected like in record files, so decode failures wrap
// domain.ErrMalformedRecord. Binding tags are checked afterwards.
func bindRecordJSON(c *gin.Context, obj interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected content after request", domain.ErrMalformedRecord)
	}
	return binding.Validator.ValidateStruct(obj)
}

func statusForBind(err error) int {
	if errors.Is(err, domain.ErrMalformedRecord) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
