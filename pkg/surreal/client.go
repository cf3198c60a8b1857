package surreal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

const connectTimeout = 10 * time.Second

type Client struct {
	db *surrealdb.DB
}

// identifierRegex ensures that table names and fields only contain alphanumeric characters and underscores
var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateIdentifier(s string) error {
	if !identifierRegex.MatchString(s) {
		return fmt.Errorf("invalid identifier: %s", s)
	}
	return nil
}

// NormalizeHost turns a bare host into a websocket RPC endpoint.
func NormalizeHost(host string) string {
	if host == "" || strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") ||
		strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "wss://" + host + "/rpc"
}

func NewClient(host, user, pass, namespace, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := surrealdb.New(NormalizeHost(host))
	if err != nil {
		return nil, fmt.Errorf("failed to create surrealdb client: %w", err)
	}

	if _, err = db.SignIn(ctx, map[string]interface{}{
		"user": user,
		"pass": pass,
	}); err != nil {
		return nil, fmt.Errorf("failed to signin to surrealdb: %w", err)
	}

	if err = db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use surrealdb namespace/database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() {
	c.db.Close(context.Background())
}

// Query runs sql and returns the result of the last statement.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	result, err := surrealdb.Query[interface{}](ctx, c.db, sql, vars)
	if err != nil {
		return nil, err
	}

	// Unwrap the result: *[]QueryResult -> Result field of the last statement
	rv := reflect.ValueOf(result)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		resField := rv.FieldByName("Result")
		if resField.IsValid() {
			return resField.Interface(), nil
		}
	} else if rv.Kind() == reflect.Slice {
		if rv.Len() > 0 {
			lastElem := rv.Index(rv.Len() - 1)
			if lastElem.Kind() == reflect.Struct {
				resField := lastElem.FieldByName("Result")
				if resField.IsValid() {
					return resField.Interface(), nil
				}
			}
		}
	}

	return result, nil
}

// Rows runs sql and returns the last statement's result as a list of records.
func (c *Client) Rows(ctx context.Context, sql string, vars map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := c.Query(ctx, sql, vars)
	if err != nil {
		return nil, err
	}
	return toRows(result)
}

func toRows(result interface{}) ([]map[string]interface{}, error) {
	if result == nil {
		return nil, nil
	}
	raw, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}

	rows := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		if row, ok := r.(map[string]interface{}); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (c *Client) Create(ctx context.Context, table string, data interface{}) (interface{}, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	result, err := surrealdb.Create[interface{}](ctx, c.db, table, data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Find selects fields from table matching every filter key. An empty
// orderBy leaves ordering to the database.
func (c *Client) Find(ctx context.Context, table string, fields []string, filter map[string]interface{}, orderBy string, desc bool) ([]map[string]interface{}, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	projection := "*"
	if len(fields) > 0 {
		for _, f := range fields {
			if err := validateIdentifier(f); err != nil {
				return nil, err
			}
		}
		projection = strings.Join(fields, ", ")
	}

	whereClause, err := buildWhereClause(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", projection, table, whereClause)
	if orderBy != "" {
		if err := validateIdentifier(orderBy); err != nil {
			return nil, err
		}
		direction := "ASC"
		if desc {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", orderBy, direction)
	}
	query += ";"

	vars := make(map[string]interface{}, len(filter))
	for k, v := range filter {
		vars[k] = v
	}

	return c.Rows(ctx, query, vars)
}

func buildWhereClause(filter map[string]interface{}) (string, error) {
	if len(filter) == 0 {
		return "true", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		// Validate filter keys
		if err := validateIdentifier(k); err != nil {
			return "", err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, len(keys))
	for i, k := range keys {
		clauses[i] = fmt.Sprintf("%s = $%s", k, k)
	}
	return strings.Join(clauses, " AND "), nil
}
