package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/salzundsand/server/internal/config"
	"github.com/salzundsand/server/internal/database"
	"github.com/salzundsand/server/internal/game"
	"github.com/salzundsand/server/internal/models"
	"github.com/salzundsand/server/internal/repository"
	"github.com/salzundsand/server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: "development"},
		Game: config.GameConfig{
			SaltPrice:     10,
			SandPrice:     5,
			CollectAmount: 1,
			CollectExp:    5,
			SellExpFactor: 2,
			LevelUpBonus:  50,
			InitialCoins:  100,
			MaxLevel:      1000,
			MaxCoins:      999999999,
			MaxResources:  999999,
			Cooldowns: config.CooldownConfig{
				CollectSalt:   2 * time.Second,
				CollectSand:   2 * time.Second,
				SellResources: time.Second,
				Default:       time.Second,
			},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:        "integration-test-secret",
				AccessExpiry:  time.Hour,
				RefreshExpiry: 24 * time.Hour,
			},
			RateLimit: config.RateLimitConfig{
				Enabled:   false,
				Window:    15 * time.Minute,
				Max:       100,
				StrictMax: 10,
				LoginMax:  5,
			},
			Lockout: config.LockoutConfig{
				MaxAttempts: 5,
				Duration:    15 * time.Minute,
			},
		},
	}
}

type APITestSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *Router
	cooldowns *game.MemoryCooldownStore
	world     *models.World
}

func (suite *APITestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	cfg := testConfig()

	suite.cooldowns = game.NewMemoryCooldownStore()
	services := service.NewServices(suite.db, cfg, suite.cooldowns, zap.NewNop())
	suite.router = NewRouter(suite.db, cfg, services, zap.NewNop())

	suite.world = &models.World{
		Name:   database.DefaultWorldName,
		Status: models.WorldStatusActive,
	}
	suite.Require().NoError(suite.db.Create(suite.world).Error)
}

func (suite *APITestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *APITestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.Engine().ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// register creates an account and returns its access token.
func (suite *APITestSuite) register(username string) string {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Str0ngPass!",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	data := suite.decode(w)["data"].(map[string]interface{})
	return data["access_token"].(string)
}

func (suite *APITestSuite) registerAdmin(username string) string {
	suite.register(username)
	suite.Require().NoError(suite.db.Model(&models.User{}).
		Where("username = ?", username).Update("role", "admin").Error)

	// log in again so the token carries the admin role
	w := suite.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "Str0ngPass!",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return suite.decode(w)["data"].(map[string]interface{})["access_token"].(string)
}

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "up", suite.decode(w)["status"])
}

func (suite *APITestSuite) TestRegisterAndMe() {
	token := suite.register("alice")

	w := suite.request(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Equal(suite.T(), "alice", data["username"])
	assert.Equal(suite.T(), "user", data["role"])
}

func (suite *APITestSuite) TestRegister_Validation() {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "x",
		"email":    "x@example.com",
		"password": "Str0ngPass!",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "validname",
		"email":    "valid@example.com",
		"password": "weak",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestLogin_WrongPassword() {
	suite.register("bob")

	w := suite.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "WrongPass1!",
	})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestGameData_RequiresAuth() {
	w := suite.request(http.MethodGet, "/api/v1/game/data", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestGameFlow() {
	token := suite.register("carol")

	// registration already joined the default world
	w := suite.request(http.MethodGet, "/api/v1/game/data", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gameData := suite.decode(w)["data"].(map[string]interface{})["game_data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), gameData["level"])
	assert.Equal(suite.T(), float64(100), gameData["coins"])

	// collect salt
	w = suite.request(http.MethodPost, "/api/v1/game/action", token, map[string]interface{}{
		"actionType": "collect_salt",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gameData = suite.decode(w)["data"].(map[string]interface{})["game_data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), gameData["salt"])
	assert.Equal(suite.T(), float64(5), gameData["experience"])

	// immediate repeat is inside the cooldown window
	w = suite.request(http.MethodPost, "/api/v1/game/action", token, map[string]interface{}{
		"actionType": "collect_salt",
	})
	assert.Equal(suite.T(), http.StatusTooManyRequests, w.Code)

	// sell the collected salt
	w = suite.request(http.MethodPost, "/api/v1/game/action", token, map[string]interface{}{
		"actionType": "sell_resources",
		"data":       map[string]int64{"salt": 1},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gameData = suite.decode(w)["data"].(map[string]interface{})["game_data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(110), gameData["coins"])
	assert.Equal(suite.T(), float64(0), gameData["salt"])
}

func (suite *APITestSuite) TestGameAction_InvalidType() {
	token := suite.register("dave")

	w := suite.request(http.MethodPost, "/api/v1/game/action", token, map[string]interface{}{
		"actionType": "mine_gold",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestGameAction_SellNothing() {
	token := suite.register("erin")

	w := suite.request(http.MethodPost, "/api/v1/game/action", token, map[string]interface{}{
		"actionType": "sell_resources",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestJoinWorld() {
	admin := suite.registerAdmin("root")
	token := suite.register("frank")

	w := suite.request(http.MethodPost, "/api/v1/admin/worlds", admin, map[string]interface{}{
		"name":   "second",
		"status": "active",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	world := suite.decode(w)["data"].(map[string]interface{})["world"].(map[string]interface{})
	worldID := uint(world["id"].(float64))

	w = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/game/join?world_id=%d", worldID), token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	gameData := suite.decode(w)["data"].(map[string]interface{})["game_data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(100), gameData["coins"])
}

func (suite *APITestSuite) TestWorlds_PublicList() {
	w := suite.request(http.MethodGet, "/api/v1/worlds", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	worlds := suite.decode(w)["data"].(map[string]interface{})["worlds"].([]interface{})
	assert.Len(suite.T(), worlds, 1)
}

func (suite *APITestSuite) TestAdminWorlds_RequiresAdminRole() {
	token := suite.register("grace")

	w := suite.request(http.MethodGet, "/api/v1/admin/worlds", token, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/admin/worlds", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestAdminWorldCRUD() {
	admin := suite.registerAdmin("root")

	w := suite.request(http.MethodPost, "/api/v1/admin/worlds", admin, map[string]interface{}{
		"name":        "beta",
		"description": "second world",
		"status":      "active",
		"settings":    map[string]float64{"game_speed": 2.0},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	world := suite.decode(w)["data"].(map[string]interface{})["world"].(map[string]interface{})
	worldID := uint(world["id"].(float64))

	w = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/admin/worlds/%d", worldID), admin, map[string]interface{}{
		"status": "maintenance",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	world = suite.decode(w)["data"].(map[string]interface{})["world"].(map[string]interface{})
	assert.Equal(suite.T(), "maintenance", world["status"])

	// a world under maintenance disappears from the public list
	w = suite.request(http.MethodGet, "/api/v1/worlds", "", nil)
	worlds := suite.decode(w)["data"].(map[string]interface{})["worlds"].([]interface{})
	assert.Len(suite.T(), worlds, 1)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/worlds/%d", worldID), admin, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/worlds/%d", worldID), "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestAdminWorld_InvalidGameSpeed() {
	admin := suite.registerAdmin("root")

	w := suite.request(http.MethodPost, "/api/v1/admin/worlds", admin, map[string]interface{}{
		"name":     "fast",
		"settings": map[string]float64{"game_speed": 50},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestNoRoute() {
	w := suite.request(http.MethodGet, "/api/v1/nothing", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
