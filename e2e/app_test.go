package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"finance-tracker/internal/models"
)

// E2ETestSuite drives the running server over HTTP
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	request playwright.APIRequestContext
	token   string
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	request, err := suite.pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.request = request
	suite.token = ""
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.request != nil {
		suite.request.Dispose()
	}
}

func (suite *E2ETestSuite) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if suite.token != "" {
		h["Authorization"] = "Bearer " + suite.token
	}
	return h
}

func (suite *E2ETestSuite) post(path string, body any, wantStatus int, out any) {
	data, err := json.Marshal(body)
	require.NoError(suite.T(), err)

	resp, err := suite.request.Post(path, playwright.APIRequestContextPostOptions{
		Data:    string(data),
		Headers: suite.headers(),
	})
	require.NoError(suite.T(), err, "POST %s failed", path)
	require.Equal(suite.T(), wantStatus, resp.Status(), "POST %s returned unexpected status", path)
	if out != nil {
		require.NoError(suite.T(), resp.JSON(out), "POST %s returned invalid JSON", path)
	}
}

func (suite *E2ETestSuite) get(path string, wantStatus int, out any) {
	resp, err := suite.request.Get(path, playwright.APIRequestContextGetOptions{
		Headers: suite.headers(),
	})
	require.NoError(suite.T(), err, "GET %s failed", path)
	require.Equal(suite.T(), wantStatus, resp.Status(), "GET %s returned unexpected status", path)
	if out != nil {
		require.NoError(suite.T(), resp.JSON(out), "GET %s returned invalid JSON", path)
	}
}

func (suite *E2ETestSuite) login() {
	var tok models.TokenResponse
	suite.post("/login", models.Credentials{Email: adminEmail, Password: adminPassword}, http.StatusOK, &tok)
	require.NotEmpty(suite.T(), tok.Token, "login returned no token")
	suite.token = tok.Token
}

func (suite *E2ETestSuite) TestRequiresLogin() {
	suite.get("/transactions", http.StatusUnauthorized, nil)
	suite.post("/login", models.Credentials{Email: adminEmail, Password: "wrong"}, http.StatusUnauthorized, nil)
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	// Login as the bootstrapped admin
	suite.login()

	// Create a product whose category does not exist yet
	var product models.CreateProductResponse
	suite.post("/products", map[string]any{
		"name":          "E2E Coffee",
		"category_name": "E2E Drinks",
	}, http.StatusCreated, &product)
	require.NotNil(suite.T(), product.Category, "category was not resolved")
	assert.Equal(suite.T(), "E2E Drinks", product.Category.Name)

	// Record a price
	var price models.CreateProductPriceResponse
	suite.post("/product_prices", map[string]any{
		"product_id": product.Product.ID,
		"price":      450,
		"created_at": "2025-01-22T08:00:00",
	}, http.StatusCreated, &price)
	assert.Equal(suite.T(), models.Cents(450), price.ProductPrice.Price)

	// Record a transaction with a new tag
	var tx models.CreateTransactionResponse
	suite.post("/transactions", map[string]any{
		"product_id":       product.Product.ID,
		"product_price_id": price.ProductPrice.ID,
		"transaction_type": "Expense",
		"description":      "Morning coffee",
		"date":             "2025-01-22T08:15:00",
		"tags":             []any{"e2e-morning"},
	}, http.StatusCreated, &tx)
	require.Len(suite.T(), tx.Tags, 1)
	assert.Equal(suite.T(), "e2e-morning", tx.Tags[0].Name)

	// Verify in list
	var txs []models.Transaction
	suite.get("/transactions", http.StatusOK, &txs)
	found := false
	for _, t := range txs {
		if t.ID == tx.Transaction.ID {
			found = true
			assert.Equal(suite.T(), []int64{tx.Tags[0].ID}, t.Tags)
			require.NotNil(suite.T(), t.Description)
			assert.Equal(suite.T(), "Morning coffee", *t.Description)
		}
	}
	assert.True(suite.T(), found, "transaction missing from list")

	// Verify analytics
	var spending []models.CategorySpending
	suite.get("/analytics/category-spending?year=2025&month=1", http.StatusOK, &spending)
	var drinks *models.CategorySpending
	for i := range spending {
		if spending[i].CategoryName == "E2E Drinks" {
			drinks = &spending[i]
		}
	}
	require.NotNil(suite.T(), drinks, "category missing from analytics")
	assert.Equal(suite.T(), models.Cents(450), drinks.TotalSpending)

	// Logout ends the session
	suite.post("/logout", nil, http.StatusNoContent, nil)
	suite.get("/transactions", http.StatusUnauthorized, nil)
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
