// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package vq

// RaceEnabled is true when the race detector is active.
// Tests use it to skip long stress runs, which the detector slows by an
// order of magnitude and whose ordering it cannot observe through atomix.
const RaceEnabled = true
