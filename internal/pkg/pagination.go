package pkg

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/studiogate/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSort     = "id:desc"
	likeSuffix      = "__like"
)

// reservedParams are query keys consumed by paging and sorting.
var reservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"sort":      true,
	"limit":     true,
}

var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ListSpec whitelists the columns a list endpoint may sort and filter on.
type ListSpec struct {
	SortFields   []string
	FilterFields []string
}

// ParsePageRequest reads page, page_size, sort and the remaining query keys
// as filters. Out of range values fall back to defaults.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	pageSize, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		filter[key] = values[0]
	}

	return domain.PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.DefaultQuery("sort", defaultSort),
		Filter:   filter,
	}
}

// ParseLimit reads a positive integer query value, returning def when it is
// missing or invalid and clamping it to maxLimit.
func ParseLimit(c *gin.Context, key string, def, maxLimit int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return min(n, maxLimit)
}

// Paginate applies LIMIT and OFFSET.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
	}
}

// Sort applies ORDER BY from a "field:dir[,field:dir...]" expression.
// Terms with unknown fields or directions are skipped.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for term := range strings.SplitSeq(req.Sort, ",") {
			field, dir, ok := strings.Cut(term, ":")
			if !ok {
				continue
			}
			field = strings.TrimSpace(field)
			dir = strings.ToLower(strings.TrimSpace(dir))
			if dir != "asc" && dir != "desc" {
				continue
			}
			if !fieldAllowed(field, allowed) {
				continue
			}
			db = db.Order(field + " " + dir)
		}
		return db
	}
}

// Filter applies WHERE conditions for whitelisted filter keys. A key with the
// "__like" suffix matches by substring, any other key by equality.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			if field, ok := strings.CutSuffix(key, likeSuffix); ok {
				if fieldAllowed(field, allowed) {
					db = db.Where(field+" LIKE ?", "%"+value+"%")
				}
				continue
			}
			if fieldAllowed(key, allowed) {
				db = db.Where(key+" = ?", value)
			}
		}
		return db
	}
}

// FindPage counts and loads one page of T from db, which must already be
// scoped to T's model.
func FindPage[T any](db *gorm.DB, req domain.PageRequest, spec ListSpec) (*domain.PageResult[T], error) {
	base := db.Scopes(Filter(req, spec.FilterFields))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, MapDBError(err)
	}

	var items []T
	if err := base.Scopes(Sort(req, spec.SortFields), Paginate(req)).Find(&items).Error; err != nil {
		return nil, MapDBError(err)
	}
	return NewPageResult(items, total, req), nil
}

// NewPageResult wraps items with the pagination metadata of req.
func NewPageResult[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	}
	if items == nil {
		items = []T{}
	}
	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

func fieldAllowed(field string, allowed []string) bool {
	return validFieldName.MatchString(field) && slices.Contains(allowed, field)
}
