package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/store"
	"github.com/uhppoted/uhppoted-app-forms/store/memory"
)

func server() *httptest.Server {
	tables := store.NewService(store.NewTableStore(memory.NewMemory()))
	s := NewServer(tables, forms.NewService(forms.Defaults(), tables), Options{Timeout: 30 * time.Second})

	return httptest.NewServer(s.Router())
}

func call(t *testing.T, srv *httptest.Server, method string, path string, body string) (int, map[string]any) {
	t.Helper()

	request, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Error creating request (%v)", err)
	}

	rs, err := srv.Client().Do(request)
	if err != nil {
		t.Fatalf("Error executing %v %v (%v)", method, path, err)
	}

	defer rs.Body.Close()

	var reply map[string]any
	if err := json.NewDecoder(rs.Body).Decode(&reply); err != nil {
		t.Fatalf("Error decoding %v %v response (%v)", method, path, err)
	}

	return rs.StatusCode, reply
}

func TestTableLifecycle(t *testing.T) {
	srv := server()
	defer srv.Close()

	if _, reply := call(t, srv, http.MethodGet, "/api/tables/Assets", ""); reply["status"] != store.StatusNotExists || reply["exists"] != false {
		t.Errorf("Incorrect exists reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodPut, "/api/tables/Assets", `{"header":["ID","Name"]}`); reply["status"] != store.StatusCreated {
		t.Errorf("Incorrect ensure reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodPut, "/api/tables/Assets", `{"header":["ID","Name"]}`); reply["status"] != store.StatusExists {
		t.Errorf("Incorrect ensure reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodPut, "/api/tables/Assets/rows", `{"rows":[["A-1","Server"],["A-2","Laptop"]]}`); reply["status"] != store.StatusSuccess || reply["count"] != 2.0 {
		t.Errorf("Incorrect replace reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodPost, "/api/tables/Assets/rows", `{"header":["ID","Name"],"rows":[["A-3",true]]}`); reply["status"] != store.StatusSuccess || reply["count"] != 1.0 {
		t.Errorf("Incorrect append reply %v", reply)
	}

	expected := []any{
		[]any{"ID", "Name"},
		[]any{"A-1", "Server"},
		[]any{"A-2", "Laptop"},
		[]any{"A-3", true},
	}

	status, reply := call(t, srv, http.MethodGet, "/api/tables/Assets/rows", "")
	if status != http.StatusOK || reply["status"] != store.StatusSuccess {
		t.Fatalf("Incorrect read reply %v %v", status, reply)
	}

	if !reflect.DeepEqual(reply["data"], expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, reply["data"])
	}

	records := []any{
		map[string]any{"ID": "A-1", "Name": "Server"},
		map[string]any{"ID": "A-2", "Name": "Laptop"},
		map[string]any{"ID": "A-3", "Name": true},
	}

	if _, reply := call(t, srv, http.MethodGet, "/api/tables/Assets/records", ""); !reflect.DeepEqual(reply["data"], records) {
		t.Errorf("Incorrect records\n   expected: %v\n   got:      %v\n", records, reply["data"])
	}
}

func TestReplaceRowsWithMissingTable(t *testing.T) {
	srv := server()
	defer srv.Close()

	status, reply := call(t, srv, http.MethodPut, "/api/tables/Missing/rows", `{"rows":[["x"]]}`)
	if status != http.StatusOK || reply["status"] != store.StatusError {
		t.Errorf("Incorrect reply %v %v", status, reply)
	}
}

func TestReadRawStatuses(t *testing.T) {
	srv := server()
	defer srv.Close()

	if _, reply := call(t, srv, http.MethodGet, "/api/tables/Missing/rows", ""); reply["status"] != store.StatusNoSheet {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusNoSheet, reply["status"])
	}

	call(t, srv, http.MethodPut, "/api/tables/Empty", `{"header":["A"]}`)

	if _, reply := call(t, srv, http.MethodGet, "/api/tables/Empty/rows", ""); reply["status"] != store.StatusNoData {
		t.Errorf("Incorrect status - expected:%v, got:%v", store.StatusNoData, reply["status"])
	}
}

func TestTableNameWithSpaces(t *testing.T) {
	srv := server()
	defer srv.Close()

	path := "/api/tables/" + url.PathEscape("위험처리방안 결정 양식")

	if _, reply := call(t, srv, http.MethodPut, path, `{"header":["위험ID"]}`); reply["status"] != store.StatusCreated {
		t.Errorf("Incorrect ensure reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodGet, path, ""); reply["exists"] != true {
		t.Errorf("Incorrect exists reply %v", reply)
	}
}

func TestMalformedJSON(t *testing.T) {
	srv := server()
	defer srv.Close()

	status, reply := call(t, srv, http.MethodPut, "/api/tables/Assets", `{"header":`)
	if status != http.StatusBadRequest || reply["status"] != store.StatusError {
		t.Errorf("Incorrect reply %v %v", status, reply)
	}
}

func TestForms(t *testing.T) {
	srv := server()
	defer srv.Close()

	rs, err := srv.Client().Get(srv.URL + "/api/forms")
	if err != nil {
		t.Fatalf("Error listing forms (%v)", err)
	}

	defer rs.Body.Close()

	var list []forms.Form
	if err := json.NewDecoder(rs.Body).Decode(&list); err != nil {
		t.Fatalf("Error decoding form list (%v)", err)
	}

	if !reflect.DeepEqual(forms.Forms(list), forms.Defaults()) {
		t.Errorf("Incorrect forms\n   expected: %v\n   got:      %v\n", forms.Defaults(), list)
	}
}

func TestSaveAndLoadForm(t *testing.T) {
	srv := server()
	defer srv.Close()

	body := `{"rows":[["A-001","H/W","서버","DB 서버","IT팀","홍길동","전산실"]]}`

	if _, reply := call(t, srv, http.MethodPost, "/api/forms/asset-classification", body); reply["status"] != store.StatusSuccess || reply["count"] != 1.0 {
		t.Errorf("Incorrect save reply %v", reply)
	}

	_, reply := call(t, srv, http.MethodGet, "/api/forms/asset-classification", "")
	if data, ok := reply["data"].([]any); reply["status"] != store.StatusSuccess || !ok || len(data) != 2 {
		t.Errorf("Incorrect load reply %v", reply)
	}
}

func TestUnknownForm(t *testing.T) {
	srv := server()
	defer srv.Close()

	if status, _ := call(t, srv, http.MethodGet, "/api/forms/incidents", ""); status != http.StatusNotFound {
		t.Errorf("Incorrect HTTP status - expected:%v, got:%v", http.StatusNotFound, status)
	}

	if status, _ := call(t, srv, http.MethodPost, "/api/forms/incidents", `{"rows":[]}`); status != http.StatusNotFound {
		t.Errorf("Incorrect HTTP status - expected:%v, got:%v", http.StatusNotFound, status)
	}
}

func TestSubmitChecklist(t *testing.T) {
	srv := server()
	defer srv.Close()

	body := `{
	  "documentTitle": "2025 상반기 점검",
	  "checkDate":     "2025-06-03",
	  "checkerName":   "홍길동",
	  "checkItems": [
	    { "checkDivision":"관리", "checkItem":"문서 분류", "checkStandard":"등급 표시", "checkMethod":"샘플링", "checkResult":"적합" },
	    { "checkDivision":"보관", "checkItem":"보존 기간", "checkStandard":"규정 준수", "checkMethod":"확인", "checkResult":"미적합", "improvement":"대장 작성" }
	  ]
	}`

	if _, reply := call(t, srv, http.MethodPost, "/api/forms/document-checklist/submissions", body); reply["status"] != store.StatusSuccess || reply["count"] != 2.0 {
		t.Errorf("Incorrect submit reply %v", reply)
	}

	if _, reply := call(t, srv, http.MethodPost, "/api/forms/risk-treatment/submissions", body); reply["status"] != store.StatusError {
		t.Errorf("Incorrect submit reply for non-checklist form %v", reply)
	}
}

func TestRateLimit(t *testing.T) {
	tables := store.NewService(store.NewTableStore(memory.NewMemory()))
	s := NewServer(tables, forms.NewService(forms.Defaults(), tables), Options{RequestsPerSecond: 0.001, Burst: 2})

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tables/Assets", nil))
		codes = append(codes, w.Code)
	}

	expected := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	if !reflect.DeepEqual(codes, expected) {
		t.Errorf("Incorrect HTTP status codes\n   expected: %v\n   got:      %v\n", expected, codes)
	}
}

func TestCORS(t *testing.T) {
	tables := store.NewService(store.NewTableStore(memory.NewMemory()))
	s := NewServer(tables, forms.NewService(forms.Defaults(), tables), Options{Origins: []string{"https://forms.example.com"}})

	rq := httptest.NewRequest(http.MethodOptions, "/api/forms", nil)
	rq.Header.Set("Origin", "https://forms.example.com")
	rq.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, rq)

	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "https://forms.example.com" {
		t.Errorf("Incorrect CORS origin - expected:%v, got:%v", "https://forms.example.com", origin)
	}
}
