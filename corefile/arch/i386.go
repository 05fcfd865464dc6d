// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

// i386Descriptor deliberately has no native register-section
// iterator: unlike amd64 and arm64, this module's i386 support is
// routed through the legacy elfcore.CoreHandler decoder (spec.md
// §4.3 step 2). No test in this module opens a 386 core; the session
// tests exercise the fallback chain with containers that report no
// architecture at all.
var i386Descriptor = &Descriptor{
	name:             "386",
	signalFromTarget: linuxSignalFromTarget,
}
