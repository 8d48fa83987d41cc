//go:build integration

package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"slices"
	"syscall"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	testAppBinary         = "./estates_test_app"
	testAppPort           = "8089"
	testServiceApiPortApi = "8091"
	testServiceApiPortBg  = "8092"
	testDbName            = "estates_integration_test"
	testAppURL            = "http://localhost:" + testAppPort
	testServiceApiURL     = "http://localhost:" + testServiceApiPortApi
	startupTimeout        = 15 * time.Second
	healthEndpoint        = testAppURL + "/api/health"
)

// TestMain builds the binary, runs an API process and a background worker against MONGO_URI_TEST,
// and drops the test database afterwards.
func TestMain(m *testing.M) {
	os.Exit(runIntegration(m))
}

func runIntegration(m *testing.M) int {
	_ = godotenv.Load()
	mongoURI := os.Getenv("MONGO_URI_TEST")
	if mongoURI == "" {
		log.Println("MONGO_URI_TEST not set; skipping integration tests")
		return 0
	}

	defer func() { _ = os.Remove(testAppBinary) }()

	buildOutput, err := exec.Command("go", "build", "-o", testAppBinary, ".").CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		return 1
	}
	defer dropTestDatabase(mongoURI)

	commonEnv := append(os.Environ(),
		"MONGO_URI="+mongoURI,
		"MONGO_DB_NAME="+testDbName,
		"JWT_SECRET=integration-test-secret",
		"BCRYPT_COST=4",
		"MOCK_SERVICES=true",
		"REDIS_ADDR=localhost:6379",
		"SMTP_FROM_ADDRESS=test@example.com",
		"RATE_LIMIT_BUCKET_SIZE=200",
		"RATE_LIMIT_REFILL_RATE=200",
	)

	apiCmd := exec.Command(testAppBinary, "-m", "api")
	apiCmd.Env = slices.Concat(commonEnv, []string{"API_PORT=" + testAppPort, "SERVICE_API_PORT=" + testServiceApiPortApi})
	apiCmd.Stderr = os.Stderr
	bgCmd := exec.Command(testAppBinary, "-m", "bg")
	bgCmd.Env = slices.Concat(commonEnv, []string{"SERVICE_API_PORT=" + testServiceApiPortBg})
	bgCmd.Stderr = os.Stderr

	if err := apiCmd.Start(); err != nil {
		log.Printf("Failed to start API process: %v", err)
		return 1
	}
	defer stop(apiCmd)
	if err := bgCmd.Start(); err != nil {
		log.Printf("Failed to start background worker: %v", err)
		return 1
	}
	defer stop(bgCmd)

	if !waitReady() {
		log.Printf("Application failed to start within %v", startupTimeout)
		return 1
	}
	return m.Run()
}

func stop(cmd *exec.Cmd) {
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
		return
	}
	_, _ = cmd.Process.Wait()
}

func waitReady() bool {
	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(healthEndpoint)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func dropTestDatabase(uri string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Printf("Failed to connect for cleanup: %v", err)
		return
	}
	defer client.Disconnect(ctx)
	_ = client.Database(testDbName).Drop(ctx)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func call(t *testing.T, method, url string, payload any, token string) (int, apiResponse) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func register(t *testing.T, name, phone, emailAddr, role string) (token, id string) {
	t.Helper()
	status, resp := call(t, http.MethodPost, testAppURL+"/api/auth/register", map[string]string{
		"name": name, "phoneNumber": phone, "email": emailAddr, "password": "secret1", "role": role,
	}, "")
	require.Equal(t, http.StatusCreated, status, string(resp.Error))

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.Token, data.User.ID
}

func uniquePhone() string {
	return fmt.Sprintf("+2246%08d", time.Now().UnixNano()%100000000)
}

func TestIntegration_Health(t *testing.T) {
	status, resp := call(t, http.MethodGet, healthEndpoint, nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
}

func TestIntegration_EnquiryLifecycle(t *testing.T) {
	agentEmail := fmt.Sprintf("agent-%d@example.com", time.Now().UnixNano())
	agentToken, _ := register(t, "Agence Kaloum", uniquePhone(), agentEmail, "agent")
	userToken, _ := register(t, "Fatou", uniquePhone(), "", "")

	status, resp := call(t, http.MethodPost, testAppURL+"/api/properties", map[string]any{
		"title": "Appartement Kaloum", "price": 1500, "propertyType": "Apartment", "listingType": "For Rent",
		"contactName": "Agence Kaloum", "location": "Kaloum, Conakry",
		"coordinates": map[string]float64{"lat": 9.509, "lng": -13.712},
	}, agentToken)
	require.Equal(t, http.StatusCreated, status, string(resp.Error))
	var property struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &property))

	status, resp = call(t, http.MethodPost, testAppURL+"/api/enquiries", map[string]string{
		"propertyId": property.ID, "message": "Is it still available?",
	}, userToken)
	require.Equal(t, http.StatusCreated, status, string(resp.Error))
	var enquiry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &enquiry))
	assert.Equal(t, "sent", enquiry.Status)

	stored := getEmailFromServiceAPI(t, "enquiry_notify", agentEmail)
	assert.Contains(t, stored["subject"], "Appartement Kaloum")

	status, _ = call(t, http.MethodGet, testAppURL+"/api/enquiries/my-received", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = call(t, http.MethodPatch, testAppURL+"/api/enquiries/"+enquiry.ID+"/read", nil, agentToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"status":"read"`)

	status, resp = call(t, http.MethodPost, testAppURL+"/api/enquiries/"+enquiry.ID+"/messages", map[string]string{"text": "Yes, visit tomorrow?"}, agentToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"status":"replied"`)

	status, _ = call(t, http.MethodDelete, testAppURL+"/api/enquiries/"+enquiry.ID, nil, userToken)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, http.MethodGet, testAppURL+"/api/enquiries/"+enquiry.ID, nil, agentToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntegration_SaveProperty(t *testing.T) {
	agentToken, _ := register(t, "Agence Ratoma", uniquePhone(), "", "agent")
	userToken, _ := register(t, "Ibrahima", uniquePhone(), "", "")

	_, resp := call(t, http.MethodPost, testAppURL+"/api/properties", map[string]any{
		"title": "Terrain Ratoma", "propertyType": "Land", "listingType": "For Sale",
		"contactName": "Agence Ratoma", "location": "Ratoma",
	}, agentToken)
	var property struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &property))

	status, resp := call(t, http.MethodPost, testAppURL+"/api/auth/save-property/"+property.ID, nil, userToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"action":"saved"`)

	status, resp = call(t, http.MethodGet, testAppURL+"/api/auth/saved-properties", nil, userToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), "Terrain Ratoma")

	_, resp = call(t, http.MethodPost, testAppURL+"/api/auth/save-property/"+property.ID, nil, userToken)
	assert.Contains(t, string(resp.Data), `"action":"unsaved"`)
}

// getEmailFromServiceAPI polls the service API until the background worker has captured the email.
func getEmailFromServiceAPI(t *testing.T, actionType, emailAddr string) map[string]any {
	t.Helper()
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Timeout waiting for email via Service API (Type: %s, Email: %s)", actionType, emailAddr)
		case <-ticker.C:
			status, resp := call(t, http.MethodPost, testServiceApiURL+"/api", map[string]any{
				"method":    "getTestEmail",
				"arguments": []string{actionType, emailAddr},
			}, "")
			if status != http.StatusOK || !resp.Success {
				continue
			}
			var data map[string]any
			require.NoError(t, json.Unmarshal(resp.Data, &data))
			return data
		}
	}
}
