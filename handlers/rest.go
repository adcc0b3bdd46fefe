package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront-core/middleware"
	"storefront-core/postgrest"
	"storefront-core/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type columnKind int

const (
	kindText columnKind = iota
	kindUUID
	kindInt
	kindBool
	kindNumeric
	kindTime
)

// collection describes a table exposed under /rest/v1: which columns may be
// filtered or ordered on, and which column (if any) holds the owning user.
type collection struct {
	name    string
	columns map[string]columnKind
	owner   string
}

var (
	productsCollection = collection{
		name: "products",
		columns: map[string]columnKind{
			"id": kindUUID, "name": kindText, "price": kindNumeric, "description": kindText,
			"category_id": kindUUID, "is_best_seller": kindBool, "created_at": kindTime,
		},
	}
	categoriesCollection = collection{
		name:    "categories",
		columns: map[string]columnKind{"id": kindUUID, "name": kindText, "created_at": kindTime},
	}
	cartCollection = collection{
		name: "cart",
		columns: map[string]columnKind{
			"id": kindUUID, "product_id": kindUUID, "user_id": kindUUID, "quantity": kindInt, "created_at": kindTime,
		},
		owner: "user_id",
	}
	favouriteCollection = collection{
		name:    "favourite",
		columns: map[string]columnKind{"id": kindUUID, "product_id": kindUUID, "user_id": kindUUID},
		owner:   "user_id",
	}
	ordersCollection = collection{
		name: "orders",
		columns: map[string]columnKind{
			"id": kindInt, "created_at": kindTime, "email": kindText, "user_id": kindUUID,
			"delivery_cost": kindInt, "status_id": kindText,
		},
		owner: "user_id",
	}
	// orders_items has no user column; ownership goes through the parent order.
	orderLinesCollection = collection{
		name: "orders_items",
		columns: map[string]columnKind{
			"id": kindInt, "title": kindText, "cost": kindNumeric, "quantity": kindInt,
			"order_id": kindInt, "product_id": kindUUID,
		},
	}
	profilesCollection = collection{
		name: "profiles",
		columns: map[string]columnKind{
			"id": kindUUID, "email": kindText, "full_name": kindText, "phone": kindText,
			"address": kindText, "updated_at": kindTime,
		},
		owner: "id",
	}
)

// apiError is the PostgREST error body.
type apiError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

func restError(c *gin.Context, status int, code, message string) {
	c.JSON(status, apiError{Code: code, Message: message})
}

func restErrorDetails(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, apiError{Code: code, Message: message, Details: &details})
}

func permissionDenied(c *gin.Context, table string) {
	restError(c, http.StatusUnauthorized, "42501", "permission denied for table "+table)
}

func rlsViolation(c *gin.Context, table string) {
	restError(c, http.StatusForbidden, "42501", fmt.Sprintf("new row violates row-level security policy for table %q", table))
}

func internalError(c *gin.Context, err error) {
	restErrorDetails(c, http.StatusInternalServerError, "XX000", "internal error", err.Error())
}

// queryError is a malformed filter, order or operand.
type queryError struct {
	code    string
	message string
}

func (e *queryError) Error() string { return e.message }

func writeQueryError(c *gin.Context, err error) {
	var qe *queryError
	if errors.As(err, &qe) {
		restError(c, http.StatusBadRequest, qe.code, qe.message)
		return
	}
	restError(c, http.StatusBadRequest, "PGRST100", err.Error())
}

func parseRequestQuery(c *gin.Context) (postgrest.Query, error) {
	q, err := postgrest.ParseQuery(c.Request.URL.Query())
	if err != nil {
		return postgrest.Query{}, &queryError{code: "PGRST100", message: err.Error()}
	}
	return q, nil
}

// applyQuery translates the PostgREST filters, order and paging of q into
// gorm clauses. Columns outside the collection are rejected.
func applyQuery(db *gorm.DB, col collection, q postgrest.Query) (*gorm.DB, error) {
	for _, f := range q.Filters {
		kind, ok := col.columns[f.Column]
		if !ok {
			return nil, &queryError{code: "42703", message: fmt.Sprintf("column %s.%s does not exist", col.name, f.Column)}
		}
		column := fmt.Sprintf("%q", f.Column)

		switch f.Op {
		case postgrest.OpEq, postgrest.OpNeq:
			v, err := operand(kind, f.Value())
			if err != nil {
				return nil, err
			}
			if f.Op == postgrest.OpEq {
				db = db.Where(column+" = ?", v)
			} else {
				db = db.Where(column+" <> ?", v)
			}
		case postgrest.OpIn:
			values := make([]interface{}, 0, len(f.Values))
			for _, raw := range f.Values {
				v, err := operand(kind, raw)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			if len(values) == 0 {
				db = db.Where("1 = 0")
				continue
			}
			db = db.Where(column+" IN ?", values)
		case postgrest.OpILike:
			if kind != kindText {
				return nil, &queryError{code: "42883", message: fmt.Sprintf("operator does not exist: %s ~~* unknown", f.Column)}
			}
			pattern := strings.ToLower(strings.ReplaceAll(f.Value(), "*", "%"))
			db = db.Where("LOWER("+column+") LIKE ?", pattern)
		}
	}

	for _, o := range q.Order {
		if _, ok := col.columns[o.Column]; !ok {
			return nil, &queryError{code: "42703", message: fmt.Sprintf("column %s.%s does not exist", col.name, o.Column)}
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%q %s", o.Column, dir))
	}

	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db, nil
}

func operand(kind columnKind, raw string) (interface{}, error) {
	invalid := func(typ string) error {
		return &queryError{code: "22P02", message: fmt.Sprintf("invalid input syntax for type %s: %q", typ, raw)}
	}

	switch kind {
	case kindUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalid("uuid")
		}
		return id, nil
	case kindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, invalid("bigint")
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid("boolean")
		}
		return b, nil
	default:
		return raw, nil
	}
}

// scopeOwner restricts db to the caller's rows, the way a row-level
// security policy would. Anonymous callers see nothing.
func scopeOwner(c *gin.Context, db *gorm.DB, col collection) (*gorm.DB, bool) {
	if col.owner == "" {
		return db, true
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		return db, false
	}
	return db.Where(fmt.Sprintf("%q = ?", col.owner), userID), true
}

// prefersRepresentation reports whether the caller asked for the affected rows back.
func prefersRepresentation(c *gin.Context) bool {
	for _, part := range strings.Split(c.GetHeader("Prefer"), ",") {
		if strings.TrimSpace(part) == "return=representation" {
			return true
		}
	}
	return false
}

// bindRows decodes a JSON object or array body into a slice of T and
// validates each element against its binding tags. An empty array inserts
// nothing and is answered here.
func bindRows[T any](c *gin.Context) ([]T, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		restError(c, http.StatusBadRequest, "PGRST102", "Could not read request body")
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		restError(c, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return nil, false
	}

	var rows []T
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &rows)
	} else {
		var row T
		err = json.Unmarshal(raw, &row)
		rows = []T{row}
	}
	if err != nil {
		restError(c, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
		return nil, false
	}
	if len(rows) == 0 {
		respondWrite(c, http.StatusCreated, rows)
		return nil, false
	}

	for i := range rows {
		if err := binding.Validator.ValidateStruct(&rows[i]); err != nil {
			restErrorDetails(c, http.StatusBadRequest, "23502", "invalid row", utils.SanitizeValidationError(err))
			return nil, false
		}
	}
	return rows, true
}

// bindObject decodes a single JSON object body and validates it.
func bindObject[T any](c *gin.Context) (T, bool) {
	var v T
	if err := c.ShouldBindJSON(&v); err != nil {
		restErrorDetails(c, http.StatusBadRequest, "PGRST102", "invalid body", utils.SanitizeValidationError(err))
		return v, false
	}
	return v, true
}

// respondWrite answers a write: the rows with return=representation,
// otherwise an empty body.
func respondWrite(c *gin.Context, status int, rows interface{}) {
	if prefersRepresentation(c) {
		c.JSON(status, rows)
		return
	}
	if status == http.StatusOK {
		status = http.StatusNoContent
	}
	c.Status(status)
}

// listRows runs a GET over col and writes the JSON array.
func listRows[T any](c *gin.Context, db *gorm.DB, col collection) {
	q, err := parseRequestQuery(c)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	rows := make([]T, 0)
	scoped, ok := scopeOwner(c, db.Model(new(T)), col)
	if !ok {
		c.JSON(http.StatusOK, rows)
		return
	}
	scoped, err = applyQuery(scoped, col, q)
	if err != nil {
		writeQueryError(c, err)
		return
	}
	if err := scoped.Find(&rows).Error; err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// filteredWrite prepares an owner-scoped, filtered statement for PATCH or
// DELETE. An empty filter set is refused.
func filteredWrite[T any](c *gin.Context, db *gorm.DB, col collection) (*gorm.DB, bool) {
	q, err := parseRequestQuery(c)
	if err != nil {
		writeQueryError(c, err)
		return nil, false
	}
	if len(q.Filters) == 0 {
		restError(c, http.StatusBadRequest, "21000", "UPDATE and DELETE require a WHERE clause")
		return nil, false
	}

	scoped, ok := scopeOwner(c, db.Model(new(T)), col)
	if !ok {
		permissionDenied(c, col.name)
		return nil, false
	}
	q.Order, q.Limit, q.Offset = nil, 0, 0
	scoped, err = applyQuery(scoped, col, q)
	if err != nil {
		writeQueryError(c, err)
		return nil, false
	}
	return scoped, true
}
