// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corefile

import "fmt"

// A BuildID is a container-format build identifier, usually derived
// from an NT_GNU_BUILD_ID note. See elfcore.BuildID.
type BuildID []byte

func (b BuildID) String() string { return fmt.Sprintf("%x", []byte(b)) }
