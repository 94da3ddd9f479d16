package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"cityscope/internal/district/models"
	dErrors "cityscope/pkg/domain-errors"
	"cityscope/pkg/platform/httputil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("metric_kind", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseMetricKind(fl.Field().String())
		return ok
	})
	return v
}

// pageLimits are the default and maximum page size of one endpoint.
type pageLimits struct {
	defaultSize int
	maxSize     int
}

var (
	baseLimits     = pageLimits{defaultSize: 100, maxSize: 1000}
	listLimits     = pageLimits{defaultSize: 20, maxSize: 500}
	detailedLimits = pageLimits{defaultSize: 20, maxSize: 200}
	metricsLimits  = pageLimits{defaultSize: 100, maxSize: 5000}
)

const maxPage = 1 << 20

func parsePage(r *http.Request, limits pageLimits) (models.Page, error) {
	page, err := httputil.QueryInt(r, "page", 1, 1, maxPage)
	if err != nil {
		return models.Page{}, err
	}
	size, err := httputil.QueryInt(r, "size", limits.defaultSize, 1, limits.maxSize)
	if err != nil {
		return models.Page{}, err
	}
	return models.Page{Page: page, Size: size}, nil
}

// ResolveRequest is the query of GET /districts/resolve.
type ResolveRequest struct {
	Name string `query:"name" validate:"required,max=200"`
}

func (r *ResolveRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// ResolveAddressRequest is the query of GET /districts/resolve-address.
type ResolveAddressRequest struct {
	Address  string `query:"address" validate:"required,max=500"`
	Detailed bool   `query:"detailed"`
}

func (r *ResolveAddressRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
}

// MetricsRequest is the path of GET /districts/metrics/{kind}.
type MetricsRequest struct {
	Kind string `query:"kind" validate:"required,metric_kind"`
}

func (r *MetricsRequest) Normalize() {
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
}

// validateRequest runs the struct tags and renders the first failures as a
// validation error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "metric_kind":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), kindList())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func kindList() string {
	names := make([]string, len(models.MetricKinds))
	for i, k := range models.MetricKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
