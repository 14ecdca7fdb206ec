package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/config"
	"github.com/muhfarrasm/HematYu-Service/internal/database"
	"github.com/muhfarrasm/HematYu-Service/internal/router"
	"github.com/muhfarrasm/HematYu-Service/internal/storage"

	"github.com/gin-gonic/gin"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(dir, "handler_test.db"),
	})
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	bukti, err := storage.NewBuktiStore(filepath.Join(dir, "bukti"))
	if err != nil {
		t.Fatalf("NewBuktiStore failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "hematyu-test"
	cfg.JWT.ExpireHours = 1

	return router.SetupRouter(cfg, db, bukti)
}

// doJSON fires a JSON request and decodes the envelope.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, envelope
}

func dataOf(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data object in %v", envelope)
	}
	return data
}

// registerUser registers a fresh user and returns the bearer token.
func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	code, envelope := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123",
	})
	if code != http.StatusCreated {
		t.Fatalf("register returned %d: %v", code, envelope)
	}
	token, _ := dataOf(t, envelope)["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

// createKategori makes one category of the given kind and returns its id.
func createKategori(t *testing.T, r *gin.Engine, token, path, nama string) float64 {
	t.Helper()
	code, envelope := doJSON(t, r, http.MethodPost, path, token, gin.H{
		"nama_kategori": nama,
	})
	if code != http.StatusCreated {
		t.Fatalf("create kategori returned %d: %v", code, envelope)
	}
	id, _ := dataOf(t, envelope)["id"].(float64)
	if id == 0 {
		t.Fatal("create kategori returned no id")
	}
	return id
}

func createPemasukan(t *testing.T, r *gin.Engine, token string, kategoriID, jumlah float64) float64 {
	t.Helper()
	code, envelope := doJSON(t, r, http.MethodPost, "/api/pemasukan", token, gin.H{
		"jumlah":      jumlah,
		"tanggal":     time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		"kategori_id": kategoriID,
		"deskripsi":   "gaji bulanan",
	})
	if code != http.StatusCreated {
		t.Fatalf("create pemasukan returned %d: %v", code, envelope)
	}
	id, _ := dataOf(t, envelope)["id"].(float64)
	return id
}

func TestRegisterValidation(t *testing.T) {
	r := setupServer(t)

	code, envelope := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, want 422", code)
	}
	if envelope["status"] != "error" {
		t.Errorf("status = %v, want error", envelope["status"])
	}
	errs, ok := envelope["errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing errors object in %v", envelope)
	}
	for _, field := range []string{"username", "email", "password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing %s error in %v", field, errs)
		}
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := setupServer(t)
	registerUser(t, r, "budi")

	code, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "budi",
		"email":    "other@example.com",
		"password": "Password123",
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate username returned %d, want 422", code)
	}
}

func TestLoginFlow(t *testing.T) {
	r := setupServer(t)
	registerUser(t, r, "budi")

	code, envelope := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "budi@example.com",
		"password": "Password123",
	})
	if code != http.StatusOK {
		t.Fatalf("login returned %d: %v", code, envelope)
	}
	token, _ := dataOf(t, envelope)["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}

	code, envelope = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me returned %d: %v", code, envelope)
	}
	stats, _ := dataOf(t, envelope)["stats"].(map[string]interface{})
	if stats["sisa_saldo"] != 0.0 {
		t.Errorf("fresh account saldo = %v, want 0", stats["sisa_saldo"])
	}

	code, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "budi@example.com",
		"password": "WrongPassword1",
	})
	if code != http.StatusUnauthorized {
		t.Errorf("wrong password returned %d, want 401", code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupServer(t)

	for _, path := range []string{"/api/pemasukan", "/api/target", "/api/dashboard"} {
		code, envelope := doJSON(t, r, http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized {
			t.Errorf("GET %s without token returned %d, want 401", path, code)
		}
		if envelope["status"] != "error" {
			t.Errorf("GET %s envelope status = %v, want error", path, envelope["status"])
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")

	if code, _ := doJSON(t, r, http.MethodPost, "/api/auth/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout returned %d", code)
	}
	if code, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil); code != http.StatusUnauthorized {
		t.Errorf("revoked token returned %d, want 401", code)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")

	code, envelope := doJSON(t, r, http.MethodPost, "/api/auth/refresh", token, nil)
	if code != http.StatusOK {
		t.Fatalf("refresh returned %d: %v", code, envelope)
	}
	fresh, _ := dataOf(t, envelope)["token"].(string)
	if fresh == "" || fresh == token {
		t.Fatal("refresh should return a new token")
	}

	if code, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil); code != http.StatusUnauthorized {
		t.Errorf("old token after refresh returned %d, want 401", code)
	}
	if code, _ := doJSON(t, r, http.MethodGet, "/api/auth/me", fresh, nil); code != http.StatusOK {
		t.Errorf("new token returned %d, want 200", code)
	}
}

func TestKategoriCannotBeDeletedWhileUsed(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")
	kategoriID := createKategori(t, r, token, "/api/kategori-pemasukan", "Gaji")
	pemasukanID := createPemasukan(t, r, token, kategoriID, 100000)

	path := fmt.Sprintf("/api/kategori-pemasukan/%.0f", kategoriID)
	code, envelope := doJSON(t, r, http.MethodDelete, path, token, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("delete in-use kategori returned %d: %v", code, envelope)
	}

	// after the transaction is gone the category can go too
	entryPath := fmt.Sprintf("/api/pemasukan/%.0f", pemasukanID)
	if code, _ := doJSON(t, r, http.MethodDelete, entryPath, token, nil); code != http.StatusOK {
		t.Fatalf("delete pemasukan returned %d", code)
	}
	if code, _ := doJSON(t, r, http.MethodDelete, path, token, nil); code != http.StatusOK {
		t.Errorf("delete unused kategori returned %d, want 200", code)
	}
}

func TestKategoriRejectsDuplicateName(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")
	createKategori(t, r, token, "/api/kategori-pengeluaran", "Makan")

	code, _ := doJSON(t, r, http.MethodPost, "/api/kategori-pengeluaran", token, gin.H{
		"nama_kategori": "Makan",
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate name returned %d, want 422", code)
	}

	// same name under another user is fine
	other := registerUser(t, r, "siti")
	code, _ = doJSON(t, r, http.MethodPost, "/api/kategori-pengeluaran", other, gin.H{
		"nama_kategori": "Makan",
	})
	if code != http.StatusCreated {
		t.Errorf("same name for other user returned %d, want 201", code)
	}
}

func TestPengeluaranBalanceRule(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")
	incomeCat := createKategori(t, r, token, "/api/kategori-pemasukan", "Gaji")
	expenseCat := createKategori(t, r, token, "/api/kategori-pengeluaran", "Belanja")
	createPemasukan(t, r, token, incomeCat, 100000)

	overdraw := gin.H{
		"jumlah":      150000,
		"tanggal":     time.Now().Format("2006-01-02"),
		"kategori_id": expenseCat,
	}
	code, envelope := doJSON(t, r, http.MethodPost, "/api/pengeluaran", token, overdraw)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw returned %d: %v", code, envelope)
	}
	errs, _ := envelope["errors"].(map[string]interface{})
	if _, ok := errs["jumlah"]; !ok {
		t.Errorf("expected jumlah error, got %v", errs)
	}

	within := gin.H{
		"jumlah":      100000,
		"tanggal":     time.Now().Format("2006-01-02"),
		"kategori_id": expenseCat,
	}
	if code, envelope := doJSON(t, r, http.MethodPost, "/api/pengeluaran", token, within); code != http.StatusCreated {
		t.Fatalf("spend within balance returned %d: %v", code, envelope)
	}
}

func TestTargetAllocationFlow(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")
	incomeCat := createKategori(t, r, token, "/api/kategori-pemasukan", "Gaji")
	targetCat := createKategori(t, r, token, "/api/kategori-target", "Tabungan")
	pemasukanID := createPemasukan(t, r, token, incomeCat, 400000)

	code, envelope := doJSON(t, r, http.MethodPost, "/api/target", token, gin.H{
		"nama_target":        "Dana darurat",
		"target_dana":        500000,
		"target_tanggal":     time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
		"kategori_target_id": targetCat,
	})
	if code != http.StatusCreated {
		t.Fatalf("create target returned %d: %v", code, envelope)
	}
	targetID := dataOf(t, envelope)["id"].(float64)

	code, envelope = doJSON(t, r, http.MethodPost, "/api/relasi-target-pemasukan", token, gin.H{
		"id_target":      targetID,
		"id_pemasukan":   pemasukanID,
		"jumlah_alokasi": 300000,
	})
	if code != http.StatusCreated {
		t.Fatalf("create alokasi returned %d: %v", code, envelope)
	}

	code, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/target/%.0f", targetID), token, nil)
	if code != http.StatusOK {
		t.Fatalf("show target returned %d: %v", code, envelope)
	}
	data := dataOf(t, envelope)
	if data["terkumpul"] != 300000.0 {
		t.Errorf("terkumpul = %v, want 300000", data["terkumpul"])
	}
	if data["status"] != "aktif" {
		t.Errorf("status = %v, want aktif", data["status"])
	}
	alokasi, _ := data["alokasi"].([]interface{})
	if len(alokasi) != 1 {
		t.Errorf("alokasi count = %d, want 1", len(alokasi))
	}

	// a second allocation from the same entry to the same target is a
	// duplicate pair
	code, _ = doJSON(t, r, http.MethodPost, "/api/relasi-target-pemasukan", token, gin.H{
		"id_target":      targetID,
		"id_pemasukan":   pemasukanID,
		"jumlah_alokasi": 50000,
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate pair returned %d, want 422", code)
	}

	// deleting the target takes its allocations with it
	if code, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/target/%.0f", targetID), token, nil); code != http.StatusOK {
		t.Fatalf("delete target returned %d", code)
	}
	code, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/relasi-target-pemasukan/by-pemasukan/%.0f", pemasukanID), token, nil)
	if code != http.StatusOK {
		t.Fatalf("alokasi by pemasukan returned %d: %v", code, envelope)
	}
	if rest, _ := dataOf(t, envelope)["alokasi"].([]interface{}); len(rest) != 0 {
		t.Errorf("allocations left after target delete: %v", rest)
	}
}

func TestForeignRowsLookMissing(t *testing.T) {
	r := setupServer(t)
	owner := registerUser(t, r, "budi")
	intruder := registerUser(t, r, "siti")
	kategoriID := createKategori(t, r, owner, "/api/kategori-pemasukan", "Gaji")
	pemasukanID := createPemasukan(t, r, owner, kategoriID, 100000)

	path := fmt.Sprintf("/api/pemasukan/%.0f", pemasukanID)
	code, envelope := doJSON(t, r, http.MethodGet, path, intruder, nil)
	if code != http.StatusNotFound {
		t.Errorf("foreign row returned %d, want 404", code)
	}
	if envelope["message"] != "Data tidak ditemukan" {
		t.Errorf("message = %v", envelope["message"])
	}

	if code, _ := doJSON(t, r, http.MethodDelete, path, intruder, nil); code != http.StatusNotFound {
		t.Errorf("foreign delete returned %d, want 404", code)
	}
}

func TestDashboardZeroFills(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")

	code, envelope := doJSON(t, r, http.MethodGet, "/api/dashboard?range=1month", token, nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %v", code, envelope)
	}
	data := dataOf(t, envelope)
	chart, _ := data["chart_data"].([]interface{})
	if len(chart) != time.Now().Day() {
		t.Errorf("1month buckets = %d, want %d", len(chart), time.Now().Day())
	}
	for _, raw := range chart {
		bucket := raw.(map[string]interface{})
		if bucket["pemasukan"] != 0.0 || bucket["pengeluaran"] != 0.0 {
			t.Errorf("empty account should zero-fill, got %v", bucket)
		}
	}

	code, envelope = doJSON(t, r, http.MethodGet, "/api/dashboard?range=12month", token, nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %v", code, envelope)
	}
	chart, _ = dataOf(t, envelope)["chart_data"].([]interface{})
	if len(chart) != 12 {
		t.Errorf("12month buckets = %d, want 12", len(chart))
	}

	if code, _ := doJSON(t, r, http.MethodGet, "/api/dashboard?range=weekly", token, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("bad range returned %d, want 422", code)
	}
}

func TestDashboardAllTime(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")
	incomeCat := createKategori(t, r, token, "/api/kategori-pemasukan", "Gaji")
	createPemasukan(t, r, token, incomeCat, 250000)

	code, envelope := doJSON(t, r, http.MethodGet, "/api/dashboard?range=alltime", token, nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %v", code, envelope)
	}
	data := dataOf(t, envelope)
	if data["total_pemasukan"] != 250000.0 {
		t.Errorf("total_pemasukan = %v, want 250000", data["total_pemasukan"])
	}
	if data["current_balance"] != 250000.0 {
		t.Errorf("current_balance = %v, want 250000", data["current_balance"])
	}
	recent, _ := data["recent_pemasukan"].([]interface{})
	if len(recent) != 1 {
		t.Errorf("recent_pemasukan count = %d, want 1", len(recent))
	}
}

func TestMalformedIDLooksMissing(t *testing.T) {
	r := setupServer(t)
	token := registerUser(t, r, "budi")

	code, envelope := doJSON(t, r, http.MethodGet, "/api/pemasukan/abc", token, nil)
	if code != http.StatusNotFound {
		t.Errorf("malformed id returned %d, want 404", code)
	}
	if envelope["message"] != "Data tidak ditemukan" {
		t.Errorf("message = %v", envelope["message"])
	}
}
