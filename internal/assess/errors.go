package assess

import "github.com/ppiankov/erosion/internal/model"

// ValidationError is returned for caller input that can never succeed
type ValidationError = model.ValidationError
