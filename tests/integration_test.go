package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/config"
	"github.com/SergeiKhy/ip-profiler/internal/geoip"
	"github.com/SergeiKhy/ip-profiler/internal/handler"
	"github.com/SergeiKhy/ip-profiler/internal/middleware"
	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/SergeiKhy/ip-profiler/internal/service/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testJWTSecret = "integration-test-secret"

// TestMain настраивает тестовые контейнеры
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEnv хранит окружение для интеграционных тестов
type TestEnv struct {
	router         *gin.Engine
	dispatcher     service.NotificationDispatcher
	mailer         *mocks.MockMailer
	dbContainer    testcontainers.Container
	redisContainer testcontainers.Container
	db             *repository.PostgresDB
	redis          *repository.RedisDB
}

// setupTestEnv создаёт тестовое окружение с PostgreSQL и Redis контейнерами
func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("profiler"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err)

	// Получаем данные для подключения
	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	// Создаём подключение к БД
	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "profiler",
	})
	require.NoError(t, err)

	// Применяем миграции схемы
	require.NoError(t, db.Migrate(ctx))

	// Создаём подключение к Redis
	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	// Инициализируем репозитории и сервисы
	linkRepo := repository.NewLinkRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	visitRepo := repository.NewVisitRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	logger := zap.NewNop()
	mailer := mocks.NewMockMailer()

	dispatcher := service.NewNotificationDispatcher(mailer, "ops@example.com", logger)
	dispatcher.Start()

	linkService := service.NewLinkService(linkRepo, cacheRepo, "https://profiler.example.com", logger)
	visitService := service.NewVisitService(visitRepo, linkService, dispatcher, logger)
	queryService := service.NewQueryService(visitRepo)
	adminService := service.NewAdminService(adminRepo, logger)

	require.NoError(t, adminService.SeedInitialAdmin(ctx, "operator", "s3cret"))

	adminAuth := middleware.NewAdminAuth(middleware.AdminAuthConfig{
		JWTSecret: []byte(testJWTSecret),
	})

	router := handler.NewRouter(
		linkService,
		visitService,
		queryService,
		adminService,
		geoip.NewClient(),
		adminAuth,
		[]byte(testJWTSecret),
		logger,
	)

	return &TestEnv{
		router:         router,
		dispatcher:     dispatcher,
		mailer:         mailer,
		dbContainer:    dbContainer,
		redisContainer: redisContainer,
		db:             db,
		redis:          redisClient,
	}
}

// teardown очищает ресурсы после теста
func (env *TestEnv) teardown(t *testing.T) {
	env.dispatcher.Stop()
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

// doJSON выполняет JSON-запрос к тестовому роутеру
func (env *TestEnv) doJSON(method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	env.router.ServeHTTP(w, req)
	return w
}

// login получает токен оператора
func (env *TestEnv) login(t *testing.T) string {
	w := env.doJSON("POST", "/api/v1/admin/login", gin.H{
		"username": "operator",
		"password": "s3cret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// issueLink выпускает атрибуционную ссылку
func (env *TestEnv) issueLink(t *testing.T, ownerEmail string) string {
	w := env.doJSON("POST", "/api/v1/links", gin.H{"owner_email": ownerEmail}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		LinkID string `json:"link_id"`
		URL    string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.LinkID)
	require.Contains(t, resp.URL, "?sid="+resp.LinkID)
	return resp.LinkID
}

// TestIntegration_IssueLink тестирует выпуск ссылок через API
func TestIntegration_IssueLink(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	t.Run("валидный контакт владельца", func(t *testing.T) {
		env.issueLink(t, "owner@example.com")
	})

	t.Run("без контакта владельца", func(t *testing.T) {
		env.issueLink(t, "")
	})

	t.Run("контакт без @", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/links", gin.H{"owner_email": "not-an-email"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_owner_email")
	})
}

// TestIntegration_VisitLifecycle тестирует полный путь: выпуск ссылки, визит,
// раскрытие личности и уведомление владельца
func TestIntegration_VisitLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	linkID := env.issueLink(t, "owner@example.com")

	// Шаг 1: визит по ссылке создаёт запись без личности
	w := env.doJSON("POST", "/api/v1/visits", gin.H{
		"mode":         "create",
		"device_token": "device-42",
		"link_id":      linkID,
		"ip":           "203.0.113.7",
		"isp":          "Example ISP",
		"city":         "Berlin",
		"region":       "Berlin",
		"country":      "Germany",
		"browser":      "Firefox",
		"os":           "Linux",
		"referrer":     "https://t.co/abc",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.VisitorLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Nil(t, created.VisitorEmail)
	assert.Equal(t, "X / Twitter", created.Platform)
	require.NotNil(t, created.Link)
	assert.Equal(t, "owner@example.com", created.Link.OwnerEmail)

	// Клик по ссылке без раскрытия не порождает писем
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, env.mailer.SentCount())

	// Шаг 2: раскрытие личности дополняет ту же запись
	w = env.doJSON("POST", "/api/v1/visits", gin.H{
		"mode":          "update_identity",
		"device_token":  "device-42",
		"link_id":       linkID,
		"visitor_email": "lead@example.com",
		"visitor_phone": "+49123456789",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.VisitorLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID, "Раскрытие дополняет существующую запись")
	require.NotNil(t, updated.VisitorEmail)
	assert.Equal(t, "lead@example.com", *updated.VisitorEmail)
	assert.Equal(t, "203.0.113.7", updated.IP)
	assert.Equal(t, "X / Twitter", updated.Platform, "Метка канала не пересчитывается")

	// Шаг 3: владелец получает ровно одно уведомление
	assert.Eventually(t, func() bool { return env.mailer.SentCount() == 1 }, 2*time.Second, 20*time.Millisecond)
	sent := env.mailer.Sent()[0]
	assert.Equal(t, "owner@example.com", sent.To)
	assert.Contains(t, sent.Subject, "lead@example.com")
}

// TestIntegration_VisitErrors тестирует ошибки пути раскрытия личности
func TestIntegration_VisitErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	t.Run("неизвестный режим", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/visits", gin.H{
			"mode":         "upsert",
			"device_token": "device-1",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_mode")
	})

	t.Run("раскрытие без email", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/visits", gin.H{
			"mode":         "update_identity",
			"device_token": "device-1",
			"link_id":      "some-link",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing_visitor_email")
	})

	t.Run("раскрытие без предшествующего визита", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/visits", gin.H{
			"mode":          "update_identity",
			"device_token":  "device-unknown",
			"link_id":       "some-link",
			"visitor_email": "lead@example.com",
		}, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "visit_not_found")
	})

	t.Run("link_id произвольной формы", func(t *testing.T) {
		// Идентификатор ссылки хранится как непрозрачная строка, не обязательно
		// UUID: и висячее, и не-UUID значение записывается как есть
		w := env.doJSON("POST", "/api/v1/visits", gin.H{
			"mode":         "create",
			"device_token": "device-7",
			"link_id":      "legacy/id-007",
			"ip":           "203.0.113.9",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)

		var created models.VisitorLog
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		require.NotNil(t, created.LinkID)
		assert.Equal(t, "legacy/id-007", *created.LinkID)
		assert.Nil(t, created.Link)

		// Такая запись находится и при раскрытии личности
		w = env.doJSON("POST", "/api/v1/visits", gin.H{
			"mode":          "update_identity",
			"device_token":  "device-7",
			"link_id":       "legacy/id-007",
			"visitor_email": "lead@example.com",
		}, "")
		require.Equal(t, http.StatusOK, w.Code)
	})
}

// TestIntegration_AdminVisits тестирует просмотр и поиск записей оператором
func TestIntegration_AdminVisits(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	// Без токена доступа нет
	w := env.doJSON("GET", "/api/v1/admin/visits", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := env.login(t)

	// Наполняем журнал: два прямых визита и один по ссылке
	linkID := env.issueLink(t, "owner@example.com")
	for _, visit := range []gin.H{
		{"mode": "create", "device_token": "d1", "ip": "203.0.113.1", "city": "Berlin", "country": "Germany"},
		{"mode": "create", "device_token": "d2", "ip": "198.51.100.2", "city": "Paris", "country": "France"},
		{"mode": "create", "device_token": "d3", "ip": "192.0.2.3", "city": "Lyon", "country": "France", "link_id": linkID},
	} {
		w := env.doJSON("POST", "/api/v1/visits", visit, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("список записей", func(t *testing.T) {
		w := env.doJSON("GET", "/api/v1/admin/visits", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Visits []models.VisitorLog `json:"visits"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Visits, 3)

		// Атрибутированная запись несёт резолвнутую ссылку, прямые без неё
		for _, v := range resp.Visits {
			if v.LinkID != nil {
				require.NotNil(t, v.Link)
				assert.Equal(t, "owner@example.com", v.Link.OwnerEmail)
			} else {
				assert.Nil(t, v.Link)
			}
		}
	})

	t.Run("поиск по городу", func(t *testing.T) {
		w := env.doJSON("GET", "/api/v1/admin/visits?q=paris", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Visits []models.VisitorLog `json:"visits"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Visits, 1)
		assert.Equal(t, "198.51.100.2", resp.Visits[0].IP)
	})
}

// TestIntegration_AdminUsers тестирует создание операторов
func TestIntegration_AdminUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	token := env.login(t)

	t.Run("создание нового оператора", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/admin/users", gin.H{
			"username": "second",
			"password": "p4ss",
		}, token)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("повторное имя занято", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/admin/users", gin.H{
			"username": "second",
			"password": "other",
		}, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "username_taken")
	})

	t.Run("новый оператор может войти", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/admin/login", gin.H{
			"username": "second",
			"password": "p4ss",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		w := env.doJSON("POST", "/api/v1/admin/login", gin.H{
			"username": "operator",
			"password": "wrong",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid_credentials")
	})
}

// TestIntegration_HealthCheck тестирует endpoint проверки здоровья
func TestIntegration_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	w := env.doJSON("GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
