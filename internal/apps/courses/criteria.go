package courses

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// LongFilter matches an integer column. Every set field must hold.
type LongFilter struct {
	Equals             *int64
	In                 []int64
	GreaterThan        *int64
	LessThan           *int64
	GreaterOrEqualThan *int64
	LessOrEqualThan    *int64
	Specified          *bool
}

// StringFilter matches a text column. Contains is case-insensitive.
type StringFilter struct {
	Equals    *string
	Contains  *string
	In        []string
	Specified *bool
}

// CourseCriteria filters GET /api/courses; all filters AND together.
type CourseCriteria struct {
	ID        LongFilter
	Name      StringFilter
	AddressID LongFilter
}

// ParseCriteria reads filters of the form id.equals=1, name.contains=pine or
// addressId.in=1,2 from query values. Unknown keys such as page or sort are
// ignored.
func ParseCriteria(values url.Values) (CourseCriteria, error) {
	var cr CourseCriteria
	for key, vals := range values {
		field, op, ok := strings.Cut(key, ".")
		if !ok || len(vals) == 0 {
			continue
		}
		var err error
		switch field {
		case "id":
			err = cr.ID.set(op, vals)
		case "addressId":
			if op != "equals" && op != "in" && op != "specified" {
				err = fmt.Errorf("unsupported filter %q", key)
				break
			}
			err = cr.AddressID.set(op, vals)
		case "name":
			err = cr.Name.set(op, vals)
		default:
			continue
		}
		if err != nil {
			return CourseCriteria{}, fmt.Errorf("invalid filter %s: %w", key, err)
		}
	}
	return cr, nil
}

func (f *LongFilter) set(op string, vals []string) error {
	if op == "in" {
		for _, v := range splitList(vals) {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			f.In = append(f.In, n)
		}
		return nil
	}
	if op == "specified" {
		b, err := strconv.ParseBool(vals[0])
		if err != nil {
			return err
		}
		f.Specified = &b
		return nil
	}

	n, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil {
		return err
	}
	switch op {
	case "equals":
		f.Equals = &n
	case "greaterThan":
		f.GreaterThan = &n
	case "lessThan":
		f.LessThan = &n
	case "greaterOrEqualThan":
		f.GreaterOrEqualThan = &n
	case "lessOrEqualThan":
		f.LessOrEqualThan = &n
	default:
		return fmt.Errorf("unsupported operator %q", op)
	}
	return nil
}

func (f *StringFilter) set(op string, vals []string) error {
	v := vals[0]
	switch op {
	case "equals":
		f.Equals = &v
	case "contains":
		f.Contains = &v
	case "in":
		f.In = append(f.In, splitList(vals)...)
	case "specified":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		f.Specified = &b
	default:
		return fmt.Errorf("unsupported operator %q", op)
	}
	return nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Scope applies the criteria to a query on the courses table.
func (cr CourseCriteria) Scope(db *gorm.DB) *gorm.DB {
	db = cr.ID.apply(db, "courses.id")
	db = cr.Name.apply(db, "courses.name")
	return cr.AddressID.apply(db, "courses.address_id")
}

func (f LongFilter) apply(db *gorm.DB, column string) *gorm.DB {
	if f.Equals != nil {
		db = db.Where(column+" = ?", *f.Equals)
	}
	if len(f.In) > 0 {
		db = db.Where(column+" IN ?", f.In)
	}
	if f.GreaterThan != nil {
		db = db.Where(column+" > ?", *f.GreaterThan)
	}
	if f.LessThan != nil {
		db = db.Where(column+" < ?", *f.LessThan)
	}
	if f.GreaterOrEqualThan != nil {
		db = db.Where(column+" >= ?", *f.GreaterOrEqualThan)
	}
	if f.LessOrEqualThan != nil {
		db = db.Where(column+" <= ?", *f.LessOrEqualThan)
	}
	return specified(db, column, f.Specified)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f StringFilter) apply(db *gorm.DB, column string) *gorm.DB {
	if f.Equals != nil {
		db = db.Where(column+" = ?", *f.Equals)
	}
	if f.Contains != nil {
		db = db.Where("LOWER("+column+") LIKE ?", "%"+likeEscaper.Replace(strings.ToLower(*f.Contains))+"%")
	}
	if len(f.In) > 0 {
		db = db.Where(column+" IN ?", f.In)
	}
	return specified(db, column, f.Specified)
}

func specified(db *gorm.DB, column string, want *bool) *gorm.DB {
	if want == nil {
		return db
	}
	if *want {
		return db.Where(column + " IS NOT NULL")
	}
	return db.Where(column + " IS NULL")
}
