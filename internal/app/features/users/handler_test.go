package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	regionsfeature "github.com/dalemusser/regionhub/internal/app/features/regions"
	"github.com/dalemusser/regionhub/internal/app/features/users"
	regionstore "github.com/dalemusser/regionhub/internal/app/store/regions"
	userstore "github.com/dalemusser/regionhub/internal/app/store/users"
	"github.com/dalemusser/regionhub/internal/app/system/auth"
	"github.com/dalemusser/regionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/regionhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// newAPI wires the /users routes the way the app does, against a test
// database and the fake geocoder.
func newAPI(t *testing.T) (*chi.Mux, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	us := userstore.New(db, testutil.NewFakeGeocoder())
	rs := regionstore.New(db)
	uh := users.NewHandler(us, log)
	rh := regionsfeature.NewHandler(rs, log)
	requireKey := auth.RequireAPIKey(us, log)
	signupLimit := ratelimit.Middleware(ratelimit.New(100, time.Minute))

	r := chi.NewRouter()
	r.Mount("/users", users.Routes(uh, rh, requireKey, signupLimit))
	return r, db
}

func do(t *testing.T, h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	api, _ := newAPI(t)

	w := do(t, api, "POST", "/users", "",
		`{"name":"Ada Lovelace","email":"ada@example.com","address":"1 Main St"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			Address  string `json:"address"`
			Location *struct {
				Coordinates [2]float64 `json:"coordinates"`
			} `json:"location"`
		} `json:"user"`
		APIKey string `json:"api_key"`
	}
	decode(t, w, &resp)

	if resp.APIKey == "" {
		t.Error("create response should include the raw API key")
	}
	if resp.User.Location == nil {
		t.Fatal("location missing from response")
	}
	if c := resp.User.Location.Coordinates; c[0] != -73.9 || c[1] != 40.7 {
		t.Errorf("location coordinates: %v", c)
	}

	// The key from signup authenticates follow-up requests.
	w = do(t, api, "GET", "/users/"+resp.User.ID, resp.APIKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated get: %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateUserEndpointCoordinates(t *testing.T) {
	api, _ := newAPI(t)

	w := do(t, api, "POST", "/users", "",
		`{"name":"Grace","email":"grace@example.com","coordinates":[-73.9,40.7]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			Address string `json:"address"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	if resp.User.Address != "1 Main St" {
		t.Errorf("derived address: %q", resp.User.Address)
	}
}

func TestCreateUserEndpointRejections(t *testing.T) {
	api, _ := newAPI(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"name":`, http.StatusBadRequest},
		{"both sides", `{"name":"X","email":"x@example.com","address":"1 Main St","coordinates":[-73.9,40.7]}`, http.StatusBadRequest},
		{"neither side", `{"name":"X","email":"x@example.com"}`, http.StatusBadRequest},
		{"unknown address", `{"name":"X","email":"x@example.com","address":"nowhere"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, api, "POST", "/users", "", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestProtectedRoutesRequireKey(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, key := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)

	paths := []struct {
		method, path string
	}{
		{"GET", "/users"},
		{"GET", "/users/" + u.ID.Hex()},
		{"PATCH", "/users/" + u.ID.Hex()},
		{"DELETE", "/users/" + u.ID.Hex()},
		{"POST", "/users/" + u.ID.Hex() + "/api-key"},
		{"GET", "/users/" + u.ID.Hex() + "/regions"},
		{"POST", "/users/" + u.ID.Hex() + "/regions"},
	}
	for _, p := range paths {
		if w := do(t, api, p.method, p.path, "", "{}"); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without key: %d", p.method, p.path, w.Code)
		}
	}

	if w := do(t, api, "GET", "/users", key, ""); w.Code != http.StatusOK {
		t.Errorf("GET /users with key: %d", w.Code)
	}
}

func TestGetUserEndpoint(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, key := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)

	w := do(t, api, "GET", "/users/"+u.ID.Hex(), key, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "api_key_hash") {
		t.Error("key hash leaked into the response")
	}

	if w := do(t, api, "GET", "/users/not-an-id", key, ""); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id: %d", w.Code)
	}
	if w := do(t, api, "GET", "/users/65f000000000000000000000", key, ""); w.Code != http.StatusNotFound {
		t.Errorf("missing user: %d", w.Code)
	}
}

func TestPatchUserEndpoint(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, key := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)

	w := do(t, api, "PATCH", "/users/"+u.ID.Hex(), key, `{"name":"Ada L."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	w = do(t, api, "GET", "/users/"+u.ID.Hex(), key, "")
	var got struct {
		Name string `json:"name"`
	}
	decode(t, w, &got)
	if got.Name != "Ada L." {
		t.Errorf("name after patch: %q", got.Name)
	}

	w = do(t, api, "PATCH", "/users/"+u.ID.Hex(), key,
		`{"address":"2 Oak Ave","coordinates":[-72.0,41.0]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("both location sides: %d", w.Code)
	}
}

func TestRegenerateKeyEndpoint(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, oldKey := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)

	w := do(t, api, "POST", "/users/"+u.ID.Hex()+"/api-key", oldKey, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		APIKey string `json:"api_key"`
	}
	decode(t, w, &resp)
	if resp.APIKey == "" || resp.APIKey == oldKey {
		t.Fatalf("regenerated key: %q", resp.APIKey)
	}

	if w := do(t, api, "GET", "/users", oldKey, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("old key after rotation: %d", w.Code)
	}
	if w := do(t, api, "GET", "/users", resp.APIKey, ""); w.Code != http.StatusOK {
		t.Errorf("new key after rotation: %d", w.Code)
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, key := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)
	_, adminKey := fx.CreateUser(ctx, "Root", "root@example.com", "1 Main St", -73.9, 40.7)

	w := do(t, api, "DELETE", "/users/"+u.ID.Hex(), key, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, api, "GET", "/users/"+u.ID.Hex(), adminKey, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted user still served: %d", w.Code)
	}
}

func TestUserRegionRoutes(t *testing.T) {
	api, db := newAPI(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u, key := fx.CreateUser(ctx, "Ada", "ada@example.com", "1 Main St", -73.9, 40.7)

	body := `{"name":"Downtown","geometry":{"type":"Polygon","coordinates":[[[-74.0,40.6],[-73.8,40.6],[-73.8,40.8],[-74.0,40.8],[-74.0,40.6]]]}}`
	w := do(t, api, "POST", "/users/"+u.ID.Hex()+"/regions", key, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create region: %d: %s", w.Code, w.Body.String())
	}
	var region struct {
		ID string `json:"id"`
	}
	decode(t, w, &region)

	w = do(t, api, "GET", "/users/"+u.ID.Hex()+"/regions", key, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list regions: %d: %s", w.Code, w.Body.String())
	}
	var page struct {
		Data []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
		Meta struct {
			TotalItems int64 `json:"total_items"`
		} `json:"meta"`
	}
	decode(t, w, &page)
	if page.Meta.TotalItems != 1 || len(page.Data) != 1 || page.Data[0].ID != region.ID {
		t.Fatalf("owner region listing: %s", w.Body.String())
	}
}
