package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/common"
	"github.com/mkuznecov/expensetrack/internal/logging"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient implements Client over plain net/http.
type HTTPClient struct {
	baseURL url.URL
	client  httpDoer
	tokens  TokenSource
	log     logging.Logger
}

// NewHTTPClient builds an adapter for the API rooted at baseURL. The doer is
// usually an *http.Client with the request timeout already configured.
func NewHTTPClient(baseURL url.URL, doer httpDoer, tokens TokenSource, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  doer,
		tokens:  tokens,
		log:     log.With("component", "api"),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	UserInfo models.User `json:"user_info"`
}

type loginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

type listExpensesResponse struct {
	Expenses []models.Expense `json:"expenses"`
	Total    int              `json:"total"`
}

type createExpenseRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

type expenseResponse struct {
	Expense models.Expense `json:"expense"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (c *HTTPClient) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var resp userResponse
	in := registerRequest{Username: username, Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "auth/register", in, &resp); err != nil {
		return nil, err
	}
	return &resp.UserInfo, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var resp loginResponse
	in := loginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "auth/login", in, &resp); err != nil {
		return "", nil, err
	}
	return resp.Token, &resp.UserInfo, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "auth/logout", nil, nil)
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodGet, "auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.UserInfo, nil
}

func (c *HTTPClient) ListExpenses(ctx context.Context) ([]models.Expense, int, error) {
	var resp listExpensesResponse
	if err := c.doJSON(ctx, http.MethodGet, "expenses", nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Expenses, resp.Total, nil
}

func (c *HTTPClient) CreateExpense(ctx context.Context, draft models.ExpenseDraft) (*models.Expense, error) {
	amount, _ := draft.Amount.Float64()
	in := createExpenseRequest{
		Amount:      amount,
		Description: draft.Description,
		Category:    draft.Category,
		Date:        draft.Date,
	}
	var resp expenseResponse
	if err := c.doJSON(ctx, http.MethodPost, "expenses", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Expense, nil
}

func (c *HTTPClient) DeleteExpense(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "expenses/"+strconv.FormatInt(id, 10), nil, nil)
}

// doJSON performs a single request/response round-trip: marshals in (when
// non-nil), attaches headers and the bearer token, and decodes a 2xx body
// into out (when non-nil). 401 responses are returned as-is to the caller;
// the adapter never clears the session on its own.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	endpoint := c.baseURL.JoinPath(path)

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	if token, ok := c.tokens.Token(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, common.ErrUnavailable)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.log.Debug(ctx, "request done", "method", method, "path", path, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		data, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(data, &er)
		return &APIError{Status: resp.StatusCode, Message: er.text()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
