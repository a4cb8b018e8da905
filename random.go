// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"crypto/rand"
	"encoding/hex"
)

// boundaryBytes is the number of random bytes in a MIME boundary (128 bit)
const boundaryBytes = 16

// randomBoundary returns a MIME boundary of 32 lowercase hex characters. This method uses the
// crypto/rand package and therefore is cryptographically secure
func randomBoundary() (string, error) {
	randPool := make([]byte, boundaryBytes)
	if _, err := rand.Read(randPool); err != nil {
		return "", err
	}
	return hex.EncodeToString(randPool), nil
}
