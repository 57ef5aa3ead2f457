package commands

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// CommandsTestSuite runs fin commands in-process against a real API server
type CommandsTestSuite struct {
	suite.Suite
	db         *storage.DB
	server     *httptest.Server
	configPath string
}

func (suite *CommandsTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err)
	suite.db = db
	suite.server = httptest.NewServer(handlers.NewHandlers(db, zerolog.Nop()).Router(nil))
	suite.configPath = filepath.Join(suite.T().TempDir(), "fin", "config.yaml")
}

func (suite *CommandsTestSuite) TearDownTest() {
	suite.server.Close()
	suite.db.Close()
}

// fin runs one command with the given stdin and returns its combined output.
func (suite *CommandsTestSuite) fin(stdin string, args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", suite.configPath, "--server", suite.server.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func (suite *CommandsTestSuite) mustFin(args ...string) string {
	out, err := suite.fin("", args...)
	require.NoError(suite.T(), err, out)
	return out
}

func (suite *CommandsTestSuite) signupAndLogin() {
	suite.mustFin("signup", "--email", "ann@example.com", "--password", "pw")
	out, err := suite.fin("pw\n", "login", "--email", "ann@example.com")
	require.NoError(suite.T(), err, out)
	assert.Contains(suite.T(), out, "Password: ")
	assert.Contains(suite.T(), out, "Logged in as ann@example.com")
}

func (suite *CommandsTestSuite) TestLoginStoresSessionAndServer() {
	suite.signupAndLogin()

	cfg, err := config.Load(suite.configPath)
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), cfg.Token)
	assert.Equal(suite.T(), suite.server.URL, cfg.ServerURL)

	out := suite.mustFin("logout")
	assert.Contains(suite.T(), out, "Logged out")

	cfg, err = config.Load(suite.configPath)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), cfg.Token)

	out, err = suite.fin("", "tags", "list")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "fin login")
	assert.Contains(suite.T(), out, "Error:")
}

func (suite *CommandsTestSuite) TestLoginWrongPassword() {
	suite.mustFin("signup", "--email", "ann@example.com", "--password", "pw")
	_, err := suite.fin("", "login", "--email", "ann@example.com", "--password", "nope")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "Invalid email or password")
}

func (suite *CommandsTestSuite) TestEmptyPasswordPrompt() {
	_, err := suite.fin("\n", "signup", "--email", "ann@example.com")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "password cannot be empty")
}

func (suite *CommandsTestSuite) TestWorkflow() {
	suite.signupAndLogin()

	out := suite.mustFin("products", "add", "Milk", "--category", "Groceries")
	assert.Contains(suite.T(), out, "Created product Milk")

	out = suite.mustFin("categories", "add", "Dairy", "--parent", "Groceries")
	assert.Contains(suite.T(), out, "Created category Dairy")

	out = suite.mustFin("categories", "list")
	assert.Contains(suite.T(), out, "Groceries")
	assert.Contains(suite.T(), out, "Dairy")
	assert.Equal(suite.T(), 3, strings.Count(out, "\n"), "header and two categories")

	out = suite.mustFin("prices", "add", "Milk", "3.50", "--date", "2025-01-22")
	assert.Contains(suite.T(), out, "Recorded 3.50 for Milk")

	out = suite.mustFin("prices", "current", "Milk")
	assert.Contains(suite.T(), out, "Milk: 3.50")

	out = suite.mustFin("products", "list")
	assert.Contains(suite.T(), out, "Groceries")
	assert.Contains(suite.T(), out, "3.50")

	out = suite.mustFin("tx", "add", "Milk", "--current", "-t", "dairy", "-d", "weekly shop", "--date", "2025-01-22T09:00")
	assert.Contains(suite.T(), out, "Recorded expense of 3.50 for Milk")

	out = suite.mustFin("tx", "add", "Salary", "2500", "--type", "income", "--date", "2025-01-22T10:00")
	assert.Contains(suite.T(), out, "Recorded income of 2,500.00 for Salary")

	out = suite.mustFin("tx", "list")
	assert.Contains(suite.T(), out, "WED, 22 JAN '25  (spent 3.50)")
	assert.Contains(suite.T(), out, "weekly shop  #dairy")
	assert.Contains(suite.T(), out, "+2,500.00")

	out = suite.mustFin("tags", "list")
	assert.Contains(suite.T(), out, "dairy")

	out = suite.mustFin("stats", "spending")
	assert.Contains(suite.T(), out, "2025-01-22")
	assert.Contains(suite.T(), out, "3.50")

	out = suite.mustFin("stats", "categories", "--month", "2025-01")
	assert.Contains(suite.T(), out, "Groceries")
	assert.Contains(suite.T(), out, "100.0%")

	out = suite.mustFin("stats", "prices", "Milk")
	assert.Contains(suite.T(), out, "2025-01-22")

	out = suite.mustFin("prices", "list", "--product", "Milk")
	assert.Contains(suite.T(), out, "Milk")

	suite.mustFin("products", "add", "Bread")
	_, err := suite.fin("", "prices", "current", "Bread")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "no price recorded for Bread")
}

func (suite *CommandsTestSuite) TestValidationErrors() {
	suite.signupAndLogin()

	_, err := suite.fin("", "prices", "add", "Milk", "abc")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "price")

	_, err = suite.fin("", "tx", "add", "Milk")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "Please select or type a price")

	_, err = suite.fin("", "tx", "add", "Milk", "1", "--type", "refund")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid transaction type")

	_, err = suite.fin("", "stats", "categories", "--month", "January")
	require.Error(suite.T(), err)

	_, err = suite.fin("", "prices", "current", "Bread")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), `no product named "Bread"`)

	out := suite.mustFin("products", "list")
	assert.NotContains(suite.T(), out, "Milk", "failed commands created nothing")
}

func (suite *CommandsTestSuite) TestVersion() {
	out := suite.mustFin("version")
	assert.Contains(suite.T(), out, "fin dev")
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func TestFormatGroupTitle(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "TODAY", formatGroupTitle(now))
	assert.Equal(t, "YESTERDAY", formatGroupTitle(now.AddDate(0, 0, -1)))
	assert.Equal(t, "WED, 22 JAN '25", formatGroupTitle(time.Date(2025, 1, 22, 12, 0, 0, 0, time.Local)))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "3.50", money(models.Cents(350)))
	assert.Equal(t, "1,234.05", money(models.Cents(123405)))
	assert.Equal(t, "0.00", money(0))
}
