package modelbind

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labelRequest struct {
	ID      int                 `form:"id"`
	Labels  map[string]string   `form:"labels"`
	Primary Pair[string, int]   `form:"primary"`
	Tags    []string            `form:"tags"`
	Owner   uuid.UUID           `form:"owner"`
	Due     *time.Time          `form:"due"`
	Items   []Pair[string, int] `form:"items"`
}

func TestBind_PairFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/?pair.Key=color&pair.Value=7", nil)

	p, ms, err := Bind[Pair[string, int]](r, WithPrefix("pair"))
	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, Pair[string, int]{Key: "color", Value: 7}, p)
}

func TestBind_PairFallbackToEmptyPrefix(t *testing.T) {
	r := httptest.NewRequest("GET", "/?Key=color&Value=7", nil)

	p, ms, err := Bind[Pair[string, int]](r, WithPrefix("pair"))
	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, Pair[string, int]{Key: "color", Value: 7}, p)
}

func TestBind_PartialPair(t *testing.T) {
	r := httptest.NewRequest("GET", "/?pair.Value=7", nil)

	p, ms, err := Bind[Pair[string, int]](r, WithPrefix("pair"))
	require.NoError(t, err)
	assert.False(t, ms.IsValid())
	assert.Equal(t, Pair[string, int]{}, p)
	assert.Equal(t, map[string][]string{"pair.Key": {MsgPairIncomplete}}, ms.Errors())
}

func TestBind_StructFromJSON(t *testing.T) {
	owner := uuid.New()
	body := `{
		"labels": [{"Key": "env", "Value": "prod"}, {"Key": "tier", "Value": "web"}],
		"primary": {"Key": "weight", "Value": 10},
		"tags": ["a", "b"],
		"owner": "` + owner.String() + `",
		"due": "2026-01-02T15:04:05Z",
		"items": [{"Key": "x", "Value": 1}]
	}`
	r := httptest.NewRequest("POST", "/?id=5", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, ms, err := Bind[labelRequest](r)
	require.NoError(t, err)
	assert.True(t, ms.IsValid(), ms.String())

	assert.Equal(t, 5, req.ID)
	assert.Equal(t, map[string]string{"env": "prod", "tier": "web"}, req.Labels)
	assert.Equal(t, Pair[string, int]{Key: "weight", Value: 10}, req.Primary)
	assert.Equal(t, []string{"a", "b"}, req.Tags)
	assert.Equal(t, owner, req.Owner)
	require.NotNil(t, req.Due)
	assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), req.Due.UTC())
	assert.Equal(t, []Pair[string, int]{{Key: "x", Value: 1}}, req.Items)
}

func TestBind_StructFromForm(t *testing.T) {
	body := "primary.Key=a&primary.Value=2&labels[0].Key=x&labels[0].Value=y&tags=a&tags=b"
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, ms, err := Bind[labelRequest](r)
	require.NoError(t, err)
	assert.True(t, ms.IsValid(), ms.String())
	assert.Equal(t, Pair[string, int]{Key: "a", Value: 2}, req.Primary)
	assert.Equal(t, map[string]string{"x": "y"}, req.Labels)
	assert.Equal(t, []string{"a", "b"}, req.Tags)
}

func TestBind_StructFromYAML(t *testing.T) {
	body := "primary:\n  Key: w\n  Value: 3\nlabels:\n  - Key: env\n    Value: prod\n"
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/yaml")

	req, ms, err := Bind[labelRequest](r)
	require.NoError(t, err)
	assert.True(t, ms.IsValid(), ms.String())
	assert.Equal(t, Pair[string, int]{Key: "w", Value: 3}, req.Primary)
	assert.Equal(t, map[string]string{"env": "prod"}, req.Labels)
}

func TestBind_PathValues(t *testing.T) {
	type itemRequest struct {
		ID   int    `form:"id"`
		Name string `form:"name"`
		Page int    `form:"page"`
	}

	var (
		got itemRequest
		ms  *ModelState
		err error
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}/{name}", func(w http.ResponseWriter, r *http.Request) {
		got, ms, err = Bind[itemRequest](r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/7/widget?page=3", nil))

	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, itemRequest{ID: 7, Name: "widget", Page: 3}, got)
}

type signupRequest struct {
	Name  string `form:"name" validate:"required"`
	Age   int    `form:"age" validate:"gte=18"`
	Email string `form:"email" validate:"omitempty,email"`
}

func TestBind_Validation(t *testing.T) {
	t.Run("RuleFailures", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?age=10&email=nope", nil)
		_, ms, err := Bind[signupRequest](r)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"name":  {"validation failed on the 'required' tag"},
			"age":   {"validation failed on the 'gte=18' tag"},
			"email": {"validation failed on the 'email' tag"},
		}, ms.Errors())
	})

	t.Run("BindingErrorSkipsRules", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?name=a&age=old", nil)
		_, ms, err := Bind[signupRequest](r)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"age": {"The value 'old' is not valid for age."},
		}, ms.Errors())
	})

	t.Run("SkipValidation", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?age=10", nil)
		req, ms, err := Bind[signupRequest](r, SkipValidation())
		require.NoError(t, err)
		assert.True(t, ms.IsValid())
		assert.Equal(t, 10, req.Age)
	})
}

type sku string

func TestBind_TypeLevelValidation(t *testing.T) {
	provider := NewMetadataProvider()
	provider.Configure(reflect.TypeFor[sku](), func(md *Metadata) {
		md.ValidateTag = "min=3"
	})

	r := httptest.NewRequest("GET", "/?pair.Key=ab&pair.Value=1", nil)
	_, ms, err := Bind[Pair[sku, int]](r, WithPrefix("pair"), WithMetadataProvider(provider))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"pair.Key": {"validation failed on the 'min=3' tag"},
	}, ms.Errors())
}

func TestBindModel_KeepsDefaults(t *testing.T) {
	req := signupRequest{Name: "preset", Age: 30}
	r := httptest.NewRequest("GET", "/?email=a@b.co", nil)

	ms, err := BindModel(r, &req)
	require.NoError(t, err)
	assert.True(t, ms.IsValid(), ms.String())
	assert.Equal(t, signupRequest{Name: "preset", Age: 30, Email: "a@b.co"}, req)
}

func TestBindModel_NotPointer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	_, err := BindModel(r, signupRequest{})
	assert.ErrorIs(t, err, ErrNotPointer)

	var nilPtr *signupRequest
	_, err = BindModel(r, nilPtr)
	assert.ErrorIs(t, err, ErrNotPointer)
}

func TestBindModel_MaxModelErrors(t *testing.T) {
	r := httptest.NewRequest("GET", "/?n=a&n=b&n=c&n=d", nil)

	var v struct {
		N []int `form:"n"`
	}
	ms, err := BindModel(r, &v, WithMaxModelErrors(3))
	require.NoError(t, err)
	assert.Equal(t, 3, ms.ErrorCount())
	assert.True(t, ms.HasReachedMaxErrors())
	assert.Len(t, ms.Errors()["n"], 2)
	assert.Equal(t, []string{ErrTooManyModelErrors.Error()}, ms.Errors()[""])
}

func TestBindModel_BinderError(t *testing.T) {
	boom := errors.New("boom")
	failing := BinderFunc(func(ctx context.Context, bc *BindingContext) (*Result, error) {
		return nil, boom
	})

	r := httptest.NewRequest("GET", "/?a=1", nil)
	var v signupRequest
	_, err := BindModel(r, &v, WithBinder(failing))
	assert.ErrorIs(t, err, boom)
}

func TestBindModel_CustomRegistry(t *testing.T) {
	reg := NewRegistry()
	RegisterMap[string, float64](reg)

	r := httptest.NewRequest("GET", "/?m[0].Key=pi&m[0].Value=3.14", nil)
	m, ms, err := Bind[map[string]float64](r, WithPrefix("m"), WithRegistry(reg))
	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, map[string]float64{"pi": 3.14}, m)
}

func TestBindModel_HeaderSource(t *testing.T) {
	type tenantRequest struct {
		Tenant string `form:"X-Tenant"`
		Page   int    `form:"page"`
	}

	r := httptest.NewRequest("GET", "/?page=2", nil)
	r.Header.Set("X-Tenant", "acme")

	req, ms, err := Bind[tenantRequest](r, AddSources(&HeaderSource{}))
	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, tenantRequest{Tenant: "acme", Page: 2}, req)
}

func TestBind_PairPointerField(t *testing.T) {
	var req struct {
		P *Pair[string, int] `form:"p" validate:"required"`
	}

	r := httptest.NewRequest("GET", "/?p.Key=a&p.Value=1", nil)
	ms, err := BindModel(r, &req)
	require.NoError(t, err)
	assert.True(t, ms.IsValid(), ms.String())
	require.NotNil(t, req.P)
	assert.Equal(t, Pair[string, int]{Key: "a", Value: 1}, *req.P)

	req.P = nil
	ms, err = BindModel(httptest.NewRequest("GET", "/?other=1", nil), &req)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"p": {"validation failed on the 'required' tag"}}, ms.Errors())
}

type parcel struct {
	Code string `form:"code" validate:"required"`
}

func (p parcel) Validate(ctx context.Context) error {
	return errors.New("parcel rejected")
}

func TestBind_SuppressedFieldStillValidatesChildren(t *testing.T) {
	var req struct {
		Parcel parcel `form:"parcel" validate:"-"`
	}

	r := httptest.NewRequest("GET", "/?parcel.code=", nil)
	ms, err := BindModel(r, &req)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"parcel.code": {"validation failed on the 'required' tag"},
	}, ms.Errors())
}

func TestBind_NestedDefaultsKept(t *testing.T) {
	type window struct {
		From int `form:"from"`
		To   int `form:"to"`
	}
	req := struct {
		Window window `form:"window"`
	}{Window: window{From: 1, To: 10}}

	ms, err := BindModel(httptest.NewRequest("GET", "/?window.to=20", nil), &req)
	require.NoError(t, err)
	assert.True(t, ms.IsValid())
	assert.Equal(t, window{From: 1, To: 20}, req.Window)
}
