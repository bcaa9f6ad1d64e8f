package warden

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

func fastHappyColorInt64() (int64, error) {
	i, err := strconv.ParseInt(strings.Replace(colorful.FastHappyColor().Hex(), "#", "", -1), 16, 32)
	return i, err
}
