// SPDX-License-Identifier: EPL-2.0

package pcm

import "errors"

var ErrInvalidFormat = errors.New("decoder reported an invalid PCM format")
