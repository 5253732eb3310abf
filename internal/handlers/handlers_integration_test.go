package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"chaya/internal/config"
	"chaya/internal/handlers"
	"chaya/internal/middleware"
	"chaya/internal/models"
	"chaya/internal/repositories"
	"chaya/internal/services"
	"chaya/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter int

// setupApp builds a Fiber app wired like main, backed by in-memory SQLite
// and an in-memory object store.
func setupApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()

	dbCounter++
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Farmer{},
		&models.FarmerDocuments{},
		&models.BankDetails{},
		&models.Field{},
	)
	assert.NoError(t, err)

	store := storage.NewMemoryStore()

	userRepo := repositories.NewGORMUserRepository(db)
	farmerRepo := repositories.NewGORMFarmerRepository(db)

	authService := services.NewAuthService(userRepo, "test_session_secret")
	userService := services.NewUserService(userRepo, farmerRepo, config.UserDeleteRestrict)
	farmerService := services.NewFarmerService(farmerRepo, store, nil)
	exportService := services.NewExportService(farmerRepo, store, nil)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	farmerHandler := handlers.NewFarmerHandler(farmerService)
	exportHandler := handlers.NewExportHandler(exportService)
	documentHandler := handlers.NewDocumentHandler(farmerService)

	app := fiber.New(fiber.Config{BodyLimit: 64 * 1024 * 1024})
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	authed := api.Group("", middleware.SessionRequired(authService))
	farmerHandler.RegisterRoutes(authed)

	active := authed.Group("", middleware.ActiveRequired(userService))
	documentHandler.RegisterRoutes(active)

	admin := active.Group("", middleware.AdminRequired())
	userHandler.RegisterRoutes(admin)
	exportHandler.RegisterRoutes(admin)
	farmerHandler.RegisterAdminRoutes(admin)

	seedUsers(t, userRepo)
	return app, store
}

func seedUsers(t *testing.T, userRepo repositories.UserRepository) {
	t.Helper()
	for _, u := range []struct {
		email, password, name, role string
	}{
		{"admin@example.com", "adminpass", "Admin", models.RoleAdmin},
		{"staff@example.com", "staffpass", "Staff", models.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		assert.NoError(t, err)
		err = userRepo.Create(&models.User{
			Email:    u.email,
			Password: string(hash),
			Name:     u.name,
			Role:     u.role,
			IsActive: true,
		})
		assert.NoError(t, err)
	}
}

// login returns the session cookie value for the given credentials.
func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := newJSONRequest(http.MethodPost, "/api/auth/login", body)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == services.SessionCookieName {
			assert.True(t, cookie.HttpOnly)
			return cookie.Value
		}
	}
	t.Fatal("no session cookie in login response")
	return ""
}

func newJSONRequest(method, target string, body []byte) *http.Request {
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request, session string) *http.Request {
	req.AddCookie(&http.Cookie{Name: services.SessionCookieName, Value: session})
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &body))
	return body
}

// newFarmerForm builds a create-farmer multipart form with all required
// documents. aadhar must be unique per farmer within one test database.
func newFarmerForm(t *testing.T, name, aadhar string, fieldCount int) (*bytes.Buffer, string) {
	t.Helper()
	return newFarmerFormWithFiles(t, name, aadhar, fieldCount, []byte("test-image-bytes"))
}

// newFarmerFormWithFiles is newFarmerForm with caller-supplied document bytes.
func newFarmerFormWithFiles(t *testing.T, name, aadhar string, fieldCount int, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	values := map[string]string{
		"farmerName":    name,
		"relationship":  "SO",
		"gender":        "MALE",
		"community":     "OC",
		"aadharNumber":  aadhar,
		"contactNumber": "9876543210",
		"state":         "Telangana",
		"district":      "Warangal",
		"mandal":        "Hanamkonda",
		"village":       "Kazipet",
		"panchayath":    "Kazipet",
		"dateOfBirth":   "1985-06-15",
		"age":           "40",
		"ifscCode":      "SBIN0001234",
		"accountNumber": "123456789",
		"branchName":    "Warangal",
		"bankName":      "SBI",
	}
	fields := make([]map[string]interface{}, fieldCount)
	for i := range fields {
		fields[i] = map[string]interface{}{
			"areaHa":        1.5,
			"yieldEstimate": 2.0,
			"location":      map[string]interface{}{"lat": 17.9, "lng": 79.5, "accuracy": 5},
		}
	}
	fieldsJSON, _ := json.Marshal(fields)
	values["fields"] = string(fieldsJSON)

	for key, value := range values {
		assert.NoError(t, w.WriteField(key, value))
	}

	docs := []string{"profilePic", "aadharDoc", "bankDoc"}
	for i := 0; i < fieldCount; i++ {
		docs = append(docs, fmt.Sprintf("fieldDoc_%d", i))
	}
	for _, slot := range docs {
		writeFilePart(t, w, slot, slot+".png", fileContent)
	}
	assert.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func writeFilePart(t *testing.T, w *multipart.Writer, slot, filename string, content []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, slot, filename))
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
}

func createFarmer(t *testing.T, app *fiber.App, session, name, aadhar string, fieldCount int) map[string]interface{} {
	t.Helper()
	body, contentType := newFarmerForm(t, name, aadhar, fieldCount)
	req, _ := http.NewRequest(http.MethodPost, "/api/farmers", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody(t, resp)["farmer"].(map[string]interface{})
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestLogin(t *testing.T) {
	app, _ := setupApp(t)

	// Valid credentials set the session cookie
	session := login(t, app, "admin@example.com", "adminpass")
	assert.NotEmpty(t, session)

	// Wrong password
	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, err := app.Test(newJSONRequest(http.MethodPost, "/api/auth/login", body), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown account gets the same response
	body, _ = json.Marshal(map[string]string{"email": "nobody@example.com", "password": "whatever"})
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/auth/login", body), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	app, _ := setupApp(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/farmers", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A tampered cookie is rejected too
	req, _ = http.NewRequest(http.MethodGet, "/api/farmers", nil)
	resp, err = app.Test(withSession(req, "garbage-token"), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFarmerLifecycle(t *testing.T) {
	app, store := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	// Create with two fields
	farmer := createFarmer(t, app, session, "Ramu", "123456789012", 2)
	surveyNumber := farmer["surveyNumber"].(string)
	assert.Regexp(t, `^[A-Z]{4}[0-9]{7}$`, surveyNumber)
	assert.Equal(t, 5, store.Len())

	// Get by survey number resolves signed URLs
	req, _ := http.NewRequest(http.MethodGet, "/api/farmers/"+surveyNumber, nil)
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody(t, resp)["farmer"].(map[string]interface{})
	documents := detail["documents"].(map[string]interface{})
	assert.Contains(t, documents["profilePicSignedUrl"], "memory://")
	fields := detail["fields"].([]interface{})
	assert.Len(t, fields, 2)
	assert.Contains(t, fields[0].(map[string]interface{})["landDocumentSignedUrl"], "memory://")

	// List finds it by search
	req, _ = http.NewRequest(http.MethodGet, "/api/farmers?search=ramu", nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody(t, resp)
	assert.Len(t, page["farmers"].([]interface{}), 1)
	pagination := page["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	// Partial update: only the name changes
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	assert.NoError(t, w.WriteField("farmerName", "Ramulu"))
	assert.NoError(t, w.Close())
	req, _ = http.NewRequest(http.MethodPut, "/api/farmers/"+surveyNumber, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)["farmer"].(map[string]interface{})
	assert.Equal(t, "Ramulu", updated["name"])
	assert.Equal(t, surveyNumber, updated["surveyNumber"])
	assert.Equal(t, 5, store.Len())

	// Document URL endpoint
	req, _ = http.NewRequest(http.MethodGet, "/api/documents/profile-pic/"+surveyNumber+"/url", nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["url"], "memory://")

	// Delete removes the record and the stored objects
	req, _ = http.NewRequest(http.MethodDelete, "/api/farmers/"+surveyNumber, nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, store.Len())

	req, _ = http.NewRequest(http.MethodGet, "/api/farmers/"+surveyNumber, nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFarmerMissingDocument(t *testing.T) {
	app, store := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	assert.NoError(t, w.WriteField("farmerName", "Ramu"))
	assert.NoError(t, w.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/farmers", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestUpdateFarmerDuplicateAadhar(t *testing.T) {
	app, _ := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	createFarmer(t, app, session, "Lakshmi", "222233334444", 1)
	farmer := createFarmer(t, app, session, "Ramu", "123456789012", 1)
	surveyNumber := farmer["surveyNumber"].(string)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	assert.NoError(t, w.WriteField("aadharNumber", "222233334444"))
	assert.NoError(t, w.Close())
	req, _ := http.NewRequest(http.MethodPut, "/api/farmers/"+surveyNumber, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["error"], "duplicate entry")
}

func TestCreateFarmerLargeDocuments(t *testing.T) {
	app, store := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	// Each document is just under the 5MB per-file cap; the whole form
	// is well past Fiber's 4MB default body limit.
	content := bytes.Repeat([]byte("a"), 4608*1024)
	body, contentType := newFarmerFormWithFiles(t, "Ramu", "123456789012", 1, content)
	req, _ := http.NewRequest(http.MethodPost, "/api/farmers", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 4, store.Len())
}

func TestStaffCannotReachAdminRoutes(t *testing.T) {
	app, _ := setupApp(t)
	adminSession := login(t, app, "admin@example.com", "adminpass")
	staffSession := login(t, app, "staff@example.com", "staffpass")

	// Staff can create farmers
	createFarmer(t, app, staffSession, "Lakshmi", "222233334444", 1)

	farmer := createFarmer(t, app, adminSession, "Ramu", "123456789012", 1)
	surveyNumber := farmer["surveyNumber"].(string)

	forbidden := []struct {
		method, target string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodPost, "/api/export/farmers"},
		{http.MethodPut, "/api/farmers/" + surveyNumber},
		{http.MethodDelete, "/api/farmers/" + surveyNumber},
	}
	for _, route := range forbidden {
		req, _ := http.NewRequest(route.method, route.target, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(withSession(req, staffSession), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s", route.method, route.target)
	}
}

func TestUserAdministration(t *testing.T) {
	app, _ := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	// Create a staff account
	body, _ := json.Marshal(map[string]string{
		"email":    "new-staff@example.com",
		"password": "password123",
		"name":     "New Staff",
	})
	resp, err := app.Test(withSession(newJSONRequest(http.MethodPost, "/api/users", body), session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, models.RoleStaff, created["role"])
	userID := fmt.Sprintf("%.0f", created["id"].(float64))

	// Duplicate email is rejected
	resp, err = app.Test(withSession(newJSONRequest(http.MethodPost, "/api/users", body), session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// List includes both staff accounts
	req, _ := http.NewRequest(http.MethodGet, "/api/users", nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeBody(t, resp)["users"].([]interface{})
	assert.Len(t, users, 2)

	// Toggle status deactivates the new account
	req, _ = http.NewRequest(http.MethodPatch, "/api/users/"+userID+"/toggle-status", nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody(t, resp)["user"].(map[string]interface{})
	assert.Equal(t, false, toggled["isActive"])

	// Delete the unreferenced account
	req, _ = http.NewRequest(http.MethodDelete, "/api/users/"+userID, nil)
	resp, err = app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLastAdminStaysActive(t *testing.T) {
	app, _ := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	// The seeded admin is the only active admin, so a self-deactivation
	// is refused.
	req, _ := http.NewRequest(http.MethodPatch, "/api/users/1/toggle-status", nil)
	resp, err := app.Test(withSession(req, session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteReferencedUserRefused(t *testing.T) {
	app, _ := setupApp(t)
	adminSession := login(t, app, "admin@example.com", "adminpass")
	staffSession := login(t, app, "staff@example.com", "staffpass")

	// The staff account creates a farmer and becomes referenced
	createFarmer(t, app, staffSession, "Ramu", "123456789012", 1)

	req, _ := http.NewRequest(http.MethodDelete, "/api/users/2", nil)
	resp, err := app.Test(withSession(req, adminSession), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeactivatedAccountLosesDocumentAccess(t *testing.T) {
	app, _ := setupApp(t)
	adminSession := login(t, app, "admin@example.com", "adminpass")
	staffSession := login(t, app, "staff@example.com", "staffpass")

	farmer := createFarmer(t, app, adminSession, "Ramu", "123456789012", 1)
	surveyNumber := farmer["surveyNumber"].(string)

	// Deactivate the staff account while its session is still live
	req, _ := http.NewRequest(http.MethodPatch, "/api/users/2/toggle-status", nil)
	resp, err := app.Test(withSession(req, adminSession), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "/api/documents/profile-pic/"+surveyNumber+"/url", nil)
	resp, err = app.Test(withSession(req, staffSession), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExport(t *testing.T) {
	app, store := setupApp(t)
	session := login(t, app, "admin@example.com", "adminpass")

	createFarmer(t, app, session, "Ramu", "123456789012", 1)
	createFarmer(t, app, session, "Lakshmi", "222233334444", 1)
	objectsBefore := store.Len()

	body, _ := json.Marshal(map[string]interface{}{
		"options": map[string]interface{}{"format": "CSV", "range": "ALL"},
	})
	resp, err := app.Test(withSession(newJSONRequest(http.MethodPost, "/api/export/farmers", body), session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody(t, resp)
	assert.Equal(t, float64(2), result["exportedCount"])
	assert.Contains(t, result["downloadUrl"], "exports/farmers_")
	assert.Equal(t, objectsBefore+1, store.Len())

	// Invalid format
	body, _ = json.Marshal(map[string]interface{}{
		"options": map[string]interface{}{"format": "XML", "range": "ALL"},
	})
	resp, err = app.Test(withSession(newJSONRequest(http.MethodPost, "/api/export/farmers", body), session), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
