package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/nhle/diet-tracker/internal/credential"
	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

// Backend is an in-memory stand-in for the diet REST API. It serves the
// resource surface the client consumes and records every request so tests
// can assert on the calls made.
type Backend struct {
	Server *httptest.Server
	Creds  *credential.Store

	mu        sync.Mutex
	nextID    int
	plans     []model.MealPlan
	meals     []model.Meal
	aliments  []model.Aliment
	relations []model.MealAliment
	records   []model.MealRecord
	failures  map[string]cannedResponse
	requests  []string

	// OmitRecordID makes POST mealRecords answer without a record_id.
	OmitRecordID bool

	// OmitRelationIDs strips relation ids from GET mealAliments and
	// GET meals/{id}/aliments responses.
	OmitRelationIDs bool

	// ValidToken is the token auth/validateToken accepts.
	ValidToken string
}

// NewBackend starts a fake backend and a credential store holding a valid
// token for user 42. Both are torn down with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		nextID:     100,
		failures:   make(map[string]cannedResponse),
		ValidToken: "valid-token",
		Creds:      credential.NewStore(keyring.NewArrayKeyring(nil)),
	}
	if err := b.Creds.SaveLogin(b.ValidToken, model.ID("42")); err != nil {
		t.Fatalf("seeding credentials: %v", err)
	}

	mux := http.NewServeMux()
	b.routes(mux)
	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)

	return b
}

// Client returns a gateway client pointed at the fake backend with
// logging silenced.
func (b *Backend) Client(opts ...gateway.Option) *gateway.Client {
	cfg := model.APIConfig{
		BaseURL:    b.Server.URL + "/",
		TimeoutSec: 5,
	}
	opts = append([]gateway.Option{gateway.WithLogger(DiscardLogger{})}, opts...)
	return gateway.NewClient(cfg, b.Creds, opts...)
}

// Session is the session of the seeded user.
func (b *Backend) Session() model.Session {
	return model.Session{UserID: model.ID("42")}
}

type cannedResponse struct {
	status int
	body   string
}

// Fail makes the next requests matching "METHOD /path" answer with status.
func (b *Backend) Fail(method, path string, status int) {
	b.Respond(method, path, status, `{"error":"injected failure"}`)
}

// Respond makes requests matching "METHOD /path" answer with a raw JSON body.
func (b *Backend) Respond(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = cannedResponse{status: status, body: body}
}

// Requests returns the "METHOD /path" lines received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many received requests match "METHOD /path".
func (b *Backend) Count(line string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == line {
			n++
		}
	}
	return n
}

// AddPlan seeds a plan and returns it with its assigned id.
func (b *Backend) AddPlan(p model.MealPlan) model.MealPlan {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.PlanID.IsZero() {
		p.PlanID = b.newID()
	}
	b.plans = append(b.plans, p)
	return p
}

// AddMeal seeds a meal.
func (b *Backend) AddMeal(m model.Meal) model.Meal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.MealID.IsZero() {
		m.MealID = b.newID()
	}
	b.meals = append(b.meals, m)
	return m
}

// AddAliment seeds an aliment.
func (b *Backend) AddAliment(a model.Aliment) model.Aliment {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.AlimentID.IsZero() {
		a.AlimentID = b.newID()
	}
	b.aliments = append(b.aliments, a)
	return a
}

// AddRelation seeds a meal↔aliment relation.
func (b *Backend) AddRelation(r model.MealAliment) model.MealAliment {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.MealAlimentID.IsZero() {
		r.MealAlimentID = b.newID()
	}
	b.relations = append(b.relations, r)
	return r
}

// AddRecord seeds a consumption record.
func (b *Backend) AddRecord(r model.MealRecord) model.MealRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.RecordID.IsZero() {
		r.RecordID = b.newID()
	}
	b.records = append(b.records, r)
	return r
}

// Plans returns a snapshot of the stored plans.
func (b *Backend) Plans() []model.MealPlan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.MealPlan(nil), b.plans...)
}

// Plan returns the stored plan with id.
func (b *Backend) Plan(id model.ID) (model.MealPlan, bool) {
	for _, p := range b.Plans() {
		if p.PlanID == id {
			return p, true
		}
	}
	return model.MealPlan{}, false
}

// Relations returns a snapshot of the stored relations.
func (b *Backend) Relations() []model.MealAliment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.MealAliment(nil), b.relations...)
}

// Records returns a snapshot of the stored records.
func (b *Backend) Records() []model.MealRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.MealRecord(nil), b.records...)
}

func (b *Backend) newID() model.ID {
	b.nextID++
	return model.ID(strconv.Itoa(b.nextID))
}

// record logs the request and applies any injected failure.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.requests = append(b.requests, line)
		canned, ok := b.failures[line]
		b.mu.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			_, _ = io.WriteString(w, canned.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("POST /auth/validateToken", b.validateToken)

	mux.HandleFunc("GET /users/mealplans", b.listPlans)
	mux.HandleFunc("GET /mealplans/{id}", b.getPlan)
	mux.HandleFunc("POST /mealplans", b.createPlan)
	mux.HandleFunc("PUT /mealplans/{id}", b.updatePlan)
	mux.HandleFunc("DELETE /mealplans/{id}", b.deletePlan)
	mux.HandleFunc("GET /mealplans/{id}/meals", b.planMeals)

	mux.HandleFunc("POST /meals", b.createMeal)
	mux.HandleFunc("DELETE /meals/{id}", b.deleteMeal)
	mux.HandleFunc("GET /meals/{id}/aliments", b.mealAliments)

	mux.HandleFunc("GET /aliments", b.searchAliments)
	mux.HandleFunc("GET /aliments/{id}", b.getAliment)

	mux.HandleFunc("GET /mealAliments", b.listRelations)
	mux.HandleFunc("POST /mealAliments", b.createRelation)
	mux.HandleFunc("DELETE /mealAliments/{id}", b.deleteRelation)

	mux.HandleFunc("GET /mealRecords", b.listRecords)
	mux.HandleFunc("POST /mealRecords", b.createRecord)
	mux.HandleFunc("DELETE /mealRecords/{id}", b.deleteRecord)
	mux.HandleFunc("GET /mealRecords/meal/{mealId}", b.mealRecords)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *Backend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+b.ValidToken
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": b.ValidToken, "user_id": 42})
}

func (b *Backend) validateToken(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (b *Backend) listPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Plans())
}

func (b *Backend) getPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := b.Plan(model.ID(r.PathValue("id")))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) createPlan(w http.ResponseWriter, r *http.Request) {
	var p model.MealPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p.PlanID = ""
	p = b.AddPlan(p)
	writeJSON(w, http.StatusCreated, p)
}

func (b *Backend) updatePlan(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for i, p := range b.plans {
		if p.PlanID != id {
			continue
		}
		merged, err := mergeJSON(p, patch)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		merged.PlanID = id
		b.plans[i] = merged
		writeJSON(w, http.StatusOK, merged)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func mergeJSON(p model.MealPlan, patch map[string]json.RawMessage) (model.MealPlan, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return p, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p, err
	}
	for k, v := range patch {
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return p, err
	}
	var out model.MealPlan
	if err := json.Unmarshal(raw, &out); err != nil {
		return p, err
	}
	return out, nil
}

func (b *Backend) deletePlan(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for i, p := range b.plans {
		if p.PlanID != id {
			continue
		}
		b.plans = append(b.plans[:i], b.plans[i+1:]...)
		kept := b.meals[:0]
		for _, m := range b.meals {
			if m.PlanID != id {
				kept = append(kept, m)
			}
		}
		b.meals = kept
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) planMeals(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	out := []model.Meal{}
	for _, m := range b.meals {
		if m.PlanID == id {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createMeal(w http.ResponseWriter, r *http.Request) {
	var m model.Meal
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m.MealID = ""
	writeJSON(w, http.StatusCreated, b.AddMeal(m))
}

func (b *Backend) deleteMeal(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for i, m := range b.meals {
		if m.MealID == id {
			b.meals = append(b.meals[:i], b.meals[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) mealAliments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	out := []model.MealFoodEntry{}
	for _, rel := range b.relations {
		if rel.MealID != id {
			continue
		}
		for _, a := range b.aliments {
			if a.AlimentID != rel.AlimentID {
				continue
			}
			entry := model.MealFoodEntry{
				Aliment:         a,
				Quantity:        rel.Quantity,
				MeasurementUnit: rel.MeasurementUnit,
			}
			if !b.OmitRelationIDs {
				entry.MealAlimentID = rel.MealAlimentID
			}
			out = append(out, entry)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) searchAliments(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := strings.ToLower(r.URL.Query().Get("name"))
	out := []model.Aliment{}
	for _, a := range b.aliments {
		if strings.Contains(strings.ToLower(a.Name), q) {
			out = append(out, a)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getAliment(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for _, a := range b.aliments {
		if a.AlimentID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) listRelations(w http.ResponseWriter, r *http.Request) {
	rels := b.Relations()
	if b.OmitRelationIDs {
		for i := range rels {
			rels[i].MealAlimentID = ""
			rels[i].ID = ""
		}
	}
	writeJSON(w, http.StatusOK, rels)
}

func (b *Backend) createRelation(w http.ResponseWriter, r *http.Request) {
	var rel model.MealAliment
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rel.MealAlimentID = ""
	writeJSON(w, http.StatusCreated, b.AddRelation(rel))
}

func (b *Backend) deleteRelation(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for i, rel := range b.relations {
		if rel.MealAlimentID == id {
			b.relations = append(b.relations[:i], b.relations[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *Backend) listRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Records())
}

func (b *Backend) createRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.MealRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rec.RecordID = ""
	rec = b.AddRecord(rec)
	if b.OmitRecordID {
		rec.RecordID = ""
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (b *Backend) deleteRecord(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("id"))
	for i, rec := range b.records {
		if rec.RecordID == id {
			b.records = append(b.records[:i], b.records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("record %s not found", id)})
}

func (b *Backend) mealRecords(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := model.ID(r.PathValue("mealId"))
	out := []model.MealRecord{}
	for _, rec := range b.records {
		if rec.MealID == id {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// DiscardLogger drops every log line.
type DiscardLogger struct{}

// Printf implements the Logger interfaces used across the module.
func (DiscardLogger) Printf(string, ...any) {}
