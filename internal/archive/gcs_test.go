package archive

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestPreconditionTriesNextName(t *testing.T) {
	taken := &googleapi.Error{Code: http.StatusPreconditionFailed, Message: "conditionNotMet"}
	assert.True(t, precondition(taken))
	assert.True(t, precondition(fmt.Errorf("close writer: %w", taken)))

	assert.False(t, precondition(nil))
	assert.False(t, precondition(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, precondition(errors.New("connection reset")))
}
