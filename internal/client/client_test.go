package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finance-tracker/internal/handlers"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type failingStore struct{ MemoryTokenStore }

func (*failingStore) SaveToken(string) error { return errors.New("disk full") }

// ClientTestSuite runs the client against the real API over an in-memory database
type ClientTestSuite struct {
	suite.Suite
	db     *storage.DB
	server *httptest.Server
	store  *MemoryTokenStore
	client *Client
	ctx    context.Context
}

func (suite *ClientTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err)
	suite.db = db
	suite.server = httptest.NewServer(handlers.NewHandlers(db, zerolog.Nop()).Router(nil))

	suite.store = &MemoryTokenStore{}
	session, err := LoadSession(suite.store)
	require.NoError(suite.T(), err)
	suite.client = New(suite.server.URL+"/", session)
	suite.ctx = context.Background()

	_, err = suite.client.SignUp(suite.ctx, "ann@example.com", "pw")
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.client.Login(suite.ctx, "ann@example.com", "pw"))
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.server.Close()
	suite.db.Close()
}

func (suite *ClientTestSuite) TestLoginPersistsToken() {
	token, err := suite.store.LoadToken()
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), token)
	assert.Equal(suite.T(), token, suite.client.Session().Token())

	// A new session picks up the stored token.
	session, err := LoadSession(suite.store)
	require.NoError(suite.T(), err)
	other := New(suite.server.URL, session)
	_, err = other.ListTags(suite.ctx)
	assert.NoError(suite.T(), err)
}

func (suite *ClientTestSuite) TestLoginFailure() {
	err := suite.client.Login(suite.ctx, "ann@example.com", "wrong")
	require.Error(suite.T(), err)

	var apiErr *APIError
	require.ErrorAs(suite.T(), err, &apiErr)
	assert.Equal(suite.T(), http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(suite.T(), "Invalid email or password", apiErr.Message)
	assert.True(suite.T(), suite.client.Session().LoggedIn(), "failed login keeps the old session")
}

func (suite *ClientTestSuite) TestSignUpDuplicate() {
	_, err := suite.client.SignUp(suite.ctx, "ann@example.com", "pw")
	assert.True(suite.T(), IsStatus(err, http.StatusConflict))
}

func (suite *ClientTestSuite) TestLogout() {
	require.NoError(suite.T(), suite.client.Logout(suite.ctx))
	assert.False(suite.T(), suite.client.Session().LoggedIn())

	token, err := suite.store.LoadToken()
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), token)

	_, err = suite.client.ListCategories(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrNotLoggedIn)

	// Logging out twice is harmless.
	assert.NoError(suite.T(), suite.client.Logout(suite.ctx))
}

func (suite *ClientTestSuite) TestLogoutWithRevokedToken() {
	require.NoError(suite.T(), suite.db.DeleteSession(suite.client.Session().Token()))
	require.NoError(suite.T(), suite.client.Logout(suite.ctx))
	assert.False(suite.T(), suite.client.Session().LoggedIn())
}

func (suite *ClientTestSuite) TestCatalogRoundTrip() {
	groceries := "Groceries"
	prod, err := suite.client.CreateProduct(suite.ctx, models.ProductPayload{Name: "Milk", CategoryName: &groceries})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), prod.Category)

	cats, err := suite.client.ListCategories(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cats, 1)
	assert.Equal(suite.T(), prod.Category.ID, cats[0].ID)

	price, err := suite.client.CreateProductPrice(suite.ctx, models.ProductPricePayload{ProductID: &prod.Product.ID, Price: 350})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.Cents(350), price.ProductPrice.Price)

	prices, err := suite.client.ListProductPrices(suite.ctx, prod.Product.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), prices, 1)

	current, err := suite.client.CurrentPrice(suite.ctx, prod.Product.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), price.ProductPrice.ID, current.ID)

	bare, err := suite.client.CreateProduct(suite.ctx, models.ProductPayload{Name: "Bread"})
	require.NoError(suite.T(), err)
	_, err = suite.client.CurrentPrice(suite.ctx, bare.Product.ID)
	assert.True(suite.T(), IsStatus(err, http.StatusNotFound))

	tag, err := suite.client.CreateTag(suite.ctx, models.TagPayload{Name: "dairy"})
	require.NoError(suite.T(), err)

	tx, err := suite.client.CreateTransaction(suite.ctx, models.TransactionPayload{
		ProductID:       &prod.Product.ID,
		ProductPriceID:  &price.ProductPrice.ID,
		TransactionType: models.Expense,
		Date:            models.NewTimestamp(time.Now()),
		Tags:            []models.TagRef{models.TagByID(tag.ID), models.TagByName("weekly")},
	})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), tx.Tags, 2)

	txs, err := suite.client.ListTransactions(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), txs, 1)
	assert.ElementsMatch(suite.T(), []int64{tag.ID, tx.Tags[1].ID}, txs[0].Tags)

	series, err := suite.client.SpendingTimeSeries(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), series, 1)
	assert.Equal(suite.T(), models.Cents(350), series[0].TotalSpending)

	spending, err := suite.client.CategorySpending(suite.ctx, 0, 0)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), spending, 1)
	assert.Equal(suite.T(), "Groceries", spending[0].CategoryName)

	history, err := suite.client.ProductPriceData(suite.ctx, prod.Product.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), history, 1)

	_, err = suite.client.ProductPriceData(suite.ctx, prod.Product.ID+100)
	assert.True(suite.T(), IsStatus(err, http.StatusNotFound))
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	require.NoError(t, store.SaveToken("tok"))
	session, err := LoadSession(store)
	require.NoError(t, err)

	_, err = New(srv.URL, session).ListTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get(RequestIDHeader))
	assert.NoError(t, err, "request id is a uuid")
}

func TestNotLoggedInSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	session, err := LoadSession(&MemoryTokenStore{})
	require.NoError(t, err)
	_, err = New(srv.URL, session).ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Zero(t, calls)
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	require.NoError(t, store.SaveToken("tok"))
	session, err := LoadSession(store)
	require.NoError(t, err)

	_, err = New(srv.URL, session).ListTags(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.Contains(t, err.Error(), "502")
}

func TestSignInStoreFailure(t *testing.T) {
	session, err := LoadSession(&failingStore{})
	require.NoError(t, err)

	err = session.SignIn("tok")
	require.Error(t, err)
	assert.False(t, session.LoggedIn(), "token is not kept when it cannot be saved")
}
