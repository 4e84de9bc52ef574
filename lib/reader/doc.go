// Copyright 2026 The Flight Recorder Authors
// SPDX-License-Identifier: Apache-2.0

// Package reader implements the streaming, synchronous File Reader
// (spec §4.7): it decodes a container file's entry stream, builds a
// typed lib/datasource object per registered source via a per-plugin
// factory table, and reconstructs telemetry re-description generations
// as new, disambiguated data sources. lib/gutma and lib/telemetry
// consume the data sources a Reader produces.
package reader
