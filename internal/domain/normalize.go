package domain

import "strings"

// Department is one of the four canonical operational departments.
type Department string

const (
	DepartmentHousekeeping Department = "housekeeping"
	DepartmentKitchen      Department = "kitchen"
	DepartmentMaintenance  Department = "maintenance"
	DepartmentService      Department = "service"
)

// IsValid checks if the department is one of the canonical values.
func (d Department) IsValid() bool {
	switch d {
	case DepartmentHousekeeping, DepartmentKitchen, DepartmentMaintenance, DepartmentService:
		return true
	default:
		return false
	}
}

// Category is a closed tag used by workflow-chaining rules.
type Category string

const (
	CategoryFoodPreparation   Category = "food_preparation"
	CategoryCooking           Category = "cooking"
	CategoryCleaning          Category = "cleaning"
	CategoryGuestRequest      Category = "guest_request"
	CategoryRoomService       Category = "room_service"
	CategoryMaintenanceRepair Category = "maintenance_repair"
	CategoryInspection        Category = "inspection"
)

// IsValid checks if the category is one of the allowed values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFoodPreparation, CategoryCooking, CategoryCleaning,
		CategoryGuestRequest, CategoryRoomService,
		CategoryMaintenanceRepair, CategoryInspection:
		return true
	default:
		return false
	}
}

// departmentAliases maps the spellings seen at the boundary to the
// canonical department values. Input is lowered and trimmed first.
var departmentAliases = map[string]Department{
	"housekeeping":  DepartmentHousekeeping,
	"house keeping": DepartmentHousekeeping,
	"house-keeping": DepartmentHousekeeping,
	"cleaning":      DepartmentHousekeeping,
	"kitchen":       DepartmentKitchen,
	"food":          DepartmentKitchen,
	"f&b":           DepartmentKitchen,
	"maintenance":   DepartmentMaintenance,
	"engineering":   DepartmentMaintenance,
	"repair":        DepartmentMaintenance,
	"service":       DepartmentService,
	"front desk":    DepartmentService,
	"room service":  DepartmentService,
}

// NormalizeDepartment canonicalizes a raw department string. Inputs are
// normalized exactly once here and never stored raw.
func NormalizeDepartment(raw string) (Department, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", " ")
	if d, ok := departmentAliases[key]; ok {
		return d, nil
	}
	return "", ErrInvalidDepartment
}

// defaultCategories maps each department to the category assumed when a
// task declares none.
var defaultCategories = map[Department]Category{
	DepartmentHousekeeping: CategoryCleaning,
	DepartmentKitchen:      CategoryFoodPreparation,
	DepartmentMaintenance:  CategoryMaintenanceRepair,
	DepartmentService:      CategoryGuestRequest,
}

// NormalizeCategory canonicalizes a raw category string, inferring from
// the department when the input is empty.
func NormalizeCategory(raw string, dept Department) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if key == "" {
		if c, ok := defaultCategories[dept]; ok {
			return c, nil
		}
		return "", ErrInvalidDepartment
	}
	c := Category(key)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// NormalizeStatus canonicalizes a raw status string, accepting the
// hyphenated and mixed-case spellings seen at the boundary.
func NormalizeStatus(raw string) (TaskStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	s := TaskStatus(key)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// NormalizePriority canonicalizes a raw priority string. Empty input
// defaults to medium.
func NormalizePriority(raw string) (TaskPriority, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return TaskPriorityMedium, nil
	}
	p := TaskPriority(key)
	if !p.IsValid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}
