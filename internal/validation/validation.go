// Package validation decodes request bodies into entity structs and checks them
// against their `validate` tags before anything touches the store.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/eventboard/backend/pkg/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Decode reads the request body (JSON or url-encoded form) into dst and validates it.
// Any failure is returned as *apperrors.ValidationError.
func Decode(c *gin.Context, dst any) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	return DecodeBytes(body, dst)
}

// DecodeBytes decodes a JSON document into dst, rejecting unknown fields, and validates it.
func DecodeBytes(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return Struct(dst)
}

// Struct validates an already populated value.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fieldPath(fe)
		return apperrors.NewValidationError(field, message(field, fe))
	}
	return apperrors.NewValidationError("", err.Error())
}

func readBody(c *gin.Context) ([]byte, error) {
	if c.ContentType() == binding.MIMEPOSTForm {
		if err := c.Request.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return formToJSON(c.Request.PostForm)
	}
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	return body, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError("", "request body too large")
	}
	return apperrors.NewValidationError("", "unable to read request body")
}

// formToJSON flattens url-encoded values into a JSON object. Repeated keys become
// arrays and the literals true/false become booleans; everything else stays a string
// and relies on the target type to coerce it.
func formToJSON(form map[string][]string) ([]byte, error) {
	obj := make(map[string]any, len(form))
	for key, vals := range form {
		if len(vals) == 1 {
			obj[key] = formValue(vals[0])
			continue
		}
		list := make([]any, 0, len(vals))
		for _, v := range vals {
			list = append(list, formValue(v))
		}
		obj[key] = list
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, apperrors.NewValidationError("", "invalid form body")
	}
	return b, nil
}

func formValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.NewValidationError("", "invalid JSON body")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return apperrors.NewValidationError("", "body must be an object")
		}
		return apperrors.NewValidationError(field, fmt.Sprintf("%q must be a %s", field, kindName(typeErr.Type)))
	}
	const unknownPrefix = "json: unknown field "
	if msg := err.Error(); strings.HasPrefix(msg, unknownPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownPrefix), `"`)
		return apperrors.NewValidationError(field, fmt.Sprintf("%q is not allowed", field))
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError("", "request body too large")
	}
	return apperrors.NewValidationError("", err.Error())
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return "value"
}

// fieldPath drops the root struct name from the namespace: "Event.prices[0].name"
// becomes "prices[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		return boundMessage(field, fe)
	}
	return fmt.Sprintf("%q failed on the %q rule", field, fe.Tag())
}

func boundMessage(field string, fe validator.FieldError) string {
	cmp := "at least"
	numCmp := "greater than or equal to"
	if fe.Tag() == "max" {
		cmp = "less than or equal to"
		numCmp = "less than or equal to"
	}
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("%q length must be %s %s characters long", field, cmp, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%q must contain %s %s items", field, cmp, fe.Param())
	}
	return fmt.Sprintf("%q must be %s %s", field, numCmp, fe.Param())
}

// NoClientID rejects a body that tries to set the generated document id.
func NoClientID(id string) error {
	if id != "" {
		return apperrors.NewValidationError("_id", `"_id" is not allowed`)
	}
	return nil
}
