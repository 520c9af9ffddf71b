// MsHoa Learning | 2026
// dto_test.go

package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListCoursesParamsNormalize(t *testing.T) {
	p := ListCoursesParams{Level: "  Beginner ", Search: " hoa ", Page: 0, PerPage: 0}
	p.Normalize()

	assert.Equal(t, "beginner", p.Level)
	assert.Equal(t, "hoa", p.Search)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = ListCoursesParams{Page: 3, PerPage: 200}
	p.Normalize()
	assert.Equal(t, 20, p.PerPage, "oversized page size falls back to the default")
	assert.Equal(t, 40, p.Offset())

	p = ListCoursesParams{Page: 2, PerPage: 10}
	p.Normalize()
	assert.Equal(t, 10, p.Offset())
}
