// Package client talks to the finance tracker REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
)

// ErrNotLoggedIn is returned by authenticated calls when the session holds no token.
var ErrNotLoggedIn = errors.New("not logged in")

// RequestIDHeader carries a per-request id that the server echoes in its logs.
const RequestIDHeader = "X-Request-Id"

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client is a finance tracker API client bound to one Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the client's auth session.
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, authed bool, body, out any) error {
	var token string
	if authed {
		token = c.session.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var e models.ErrorResponse
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		apiErr.Message = e.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// SignUp creates an account. It does not log in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/users", nil, false, models.Credentials{Email: email, Password: password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var tok models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/login", nil, false, models.Credentials{Email: email, Password: password}, &tok); err != nil {
		return err
	}
	if tok.Token == "" {
		return errors.New("login response carried no token")
	}
	return c.session.SignIn(tok.Token)
}

// Logout ends the session on the server and signs the local session out.
// The local token is dropped even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	serverErr := c.do(ctx, http.MethodPost, "/logout", nil, true, nil, nil)
	if errors.Is(serverErr, ErrNotLoggedIn) || IsStatus(serverErr, http.StatusUnauthorized) {
		serverErr = nil
	}
	return errors.Join(serverErr, c.session.SignOut())
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, p models.CategoryPayload) (*models.CreateCategoryResponse, error) {
	var out models.CreateCategoryResponse
	if err := c.do(ctx, http.MethodPost, "/categories", nil, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, p models.ProductPayload) (*models.CreateProductResponse, error) {
	var out models.CreateProductResponse
	if err := c.do(ctx, http.MethodPost, "/products", nil, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProductPrices lists prices, limited to one product when productID is non-zero.
func (c *Client) ListProductPrices(ctx context.Context, productID int64) ([]models.ProductPrice, error) {
	var query url.Values
	if productID != 0 {
		query = url.Values{"product_id": {strconv.FormatInt(productID, 10)}}
	}
	var out []models.ProductPrice
	if err := c.do(ctx, http.MethodGet, "/product_prices", query, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentPrice returns the latest price of a product. A product without
// prices yields an *APIError with status 404.
func (c *Client) CurrentPrice(ctx context.Context, productID int64) (*models.ProductPrice, error) {
	query := url.Values{"product_id": {strconv.FormatInt(productID, 10)}}
	var out models.ProductPrice
	if err := c.do(ctx, http.MethodGet, "/product_prices/current", query, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProductPrice(ctx context.Context, p models.ProductPricePayload) (*models.CreateProductPriceResponse, error) {
	var out models.CreateProductPriceResponse
	if err := c.do(ctx, http.MethodPost, "/product_prices", nil, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var out []models.Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTag(ctx context.Context, p models.TagPayload) (*models.Tag, error) {
	var out models.Tag
	if err := c.do(ctx, http.MethodPost, "/tags", nil, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, p models.TransactionPayload) (*models.CreateTransactionResponse, error) {
	var out models.CreateTransactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, true, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpendingTimeSeries returns expense totals per day.
func (c *Client) SpendingTimeSeries(ctx context.Context) ([]models.SpendingPoint, error) {
	var out []models.SpendingPoint
	if err := c.do(ctx, http.MethodGet, "/analytics/spending-time-series", nil, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategorySpending returns expense totals per category. Zero year and month
// mean all time.
func (c *Client) CategorySpending(ctx context.Context, year, month int) ([]models.CategorySpending, error) {
	var query url.Values
	if year != 0 || month != 0 {
		query = url.Values{
			"year":  {strconv.Itoa(year)},
			"month": {strconv.Itoa(month)},
		}
	}
	var out []models.CategorySpending
	if err := c.do(ctx, http.MethodGet, "/analytics/category-spending", query, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductPriceData returns the price history of a product.
func (c *Client) ProductPriceData(ctx context.Context, productID int64) ([]models.PricePoint, error) {
	query := url.Values{"product_id": {strconv.FormatInt(productID, 10)}}
	var out []models.PricePoint
	if err := c.do(ctx, http.MethodGet, "/analytics/product-price-data", query, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
