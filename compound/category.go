package compound

// Category is the ganglioside series derived from the sialic-acid count.
type Category string

// Categories by sialic-acid count 0..5.
const (
	CategoryOther Category = "other"
	CategoryGM    Category = "GM"
	CategoryGD    Category = "GD"
	CategoryGT    Category = "GT"
	CategoryGQ    Category = "GQ"
	CategoryGP    Category = "GP"
)

// ElutionOrder lists the sialylated categories from earliest to latest
// expected median retention time.
var ElutionOrder = []Category{CategoryGP, CategoryGQ, CategoryGT, CategoryGD, CategoryGM}

// ReportOrder is the fixed order used for category breakdowns.
var ReportOrder = []Category{CategoryGM, CategoryGD, CategoryGT, CategoryGQ, CategoryGP, CategoryOther}

// CategoryOf maps a sialic-acid count to its category.
func CategoryOf(sialic int) Category {
	switch sialic {
	case 1:
		return CategoryGM
	case 2:
		return CategoryGD
	case 3:
		return CategoryGT
	case 4:
		return CategoryGQ
	case 5:
		return CategoryGP
	default:
		return CategoryOther
	}
}
