// Copyright 2026 The Codeplug Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package base defines fundamental types shared by the codeplug packages: the
// error kinds surfaced by the codec, the Logger interface, and the scalar
// Address and TypeTag types.
package base
