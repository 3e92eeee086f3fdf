package supabasetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const singleObject = "application/vnd.pgrst.object+json"

var reserved = map[string]bool{"select": true, "order": true, "columns": true}

func normalize(row map[string]any) map[string]any {
	data, err := json.Marshal(row)
	if err != nil {
		return copyRow(row)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return copyRow(row)
	}
	return out
}

func matches(row map[string]any, filters map[string]string) bool {
	for column, want := range filters {
		v, ok := row[column]
		if !ok || v == nil {
			return false
		}
		if fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func eqFilters(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for k, vs := range c.Request.URL.Query() {
		if reserved[k] || len(vs) == 0 {
			continue
		}
		if v, ok := strings.CutPrefix(vs[0], "eq."); ok {
			filters[k] = v
		}
	}
	return filters
}

// checkTable answers injected failures and rejects bad user tokens.
func (s *Server) checkTable(c *gin.Context) bool {
	if status := s.failure("table:" + c.Param("table")); status != 0 {
		c.JSON(status, gin.H{"code": "XX000", "message": "injected failure"})
		return false
	}
	header := c.GetHeader("Authorization")
	if header != "" && header != "Bearer "+AnonKey {
		if _, ok := s.bearerUser(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": "PGRST301", "message": "JWT expired"})
			return false
		}
	}
	return true
}

func (s *Server) respondRows(c *gin.Context, status int, rows []map[string]any) {
	if c.GetHeader("Accept") == singleObject {
		if len(rows) != 1 {
			c.JSON(http.StatusNotAcceptable, gin.H{
				"code":    "PGRST116",
				"message": "JSON object requested, multiple (or no) rows returned",
				"details": fmt.Sprintf("The result contains %d rows", len(rows)),
			})
			return
		}
		c.JSON(status, rows[0])
		return
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	c.JSON(status, rows)
}

func (s *Server) selectRows(c *gin.Context) {
	if !s.checkTable(c) {
		return
	}
	filters := eqFilters(c)

	s.mu.Lock()
	var rows []map[string]any
	for _, row := range s.tables[c.Param("table")] {
		if matches(row, filters) {
			rows = append(rows, copyRow(row))
		}
	}
	ignoreOrder := s.IgnoreOrder
	s.mu.Unlock()

	if !ignoreOrder {
		orderRows(rows, c.Query("order"))
	}
	s.respondRows(c, http.StatusOK, rows)
}

func (s *Server) insertRows(c *gin.Context) {
	if !s.checkTable(c) {
		return
	}
	var incoming []map[string]any
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "PGRST102", "message": "Empty or invalid json"})
		return
	}

	table := c.Param("table")
	created := make([]map[string]any, 0, len(incoming))
	s.mu.Lock()
	for _, row := range incoming {
		row = normalize(row)
		if id, ok := row["id"]; !ok || id == nil || id == "" {
			row["id"] = uuid.NewString()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = time.Now().UTC().Format(time.RFC3339)
		}
		s.tables[table] = append(s.tables[table], row)
		created = append(created, copyRow(row))
	}
	s.mu.Unlock()

	if c.GetHeader("Prefer") == "return=minimal" {
		c.Status(http.StatusCreated)
		return
	}
	s.respondRows(c, http.StatusCreated, created)
}

func (s *Server) updateRows(c *gin.Context) {
	if !s.checkTable(c) {
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "PGRST102", "message": "Empty or invalid json"})
		return
	}
	patch = normalize(patch)
	filters := eqFilters(c)

	var updated []map[string]any
	s.mu.Lock()
	for _, row := range s.tables[c.Param("table")] {
		if !matches(row, filters) {
			continue
		}
		for k, v := range patch {
			if k == "id" {
				continue
			}
			row[k] = v
		}
		updated = append(updated, copyRow(row))
	}
	s.mu.Unlock()

	s.respondRows(c, http.StatusOK, updated)
}

func (s *Server) deleteRows(c *gin.Context) {
	if !s.checkTable(c) {
		return
	}
	filters := eqFilters(c)
	table := c.Param("table")

	s.mu.Lock()
	kept := s.tables[table][:0]
	for _, row := range s.tables[table] {
		if !matches(row, filters) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}
