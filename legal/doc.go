// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package legal holds the legal vocabulary shared by segmentation, ingestion
// and query processing.
//
// It recognizes statutory citations ("§ 280 Abs. 1 BGB", "Art. 14 GG"),
// tags text with concepts from a small taxonomy, and extracts ranked keywords.
// All functions are pure and safe for concurrent use.
//
// Example:
//
//	norms := legal.ExtractNorms("Anspruch aus §§ 280, 281 BGB")
//	// [§ 280 BGB, § 281 BGB]
//
//	concepts := legal.TagConcepts("Schadensersatz wegen Pflichtverletzung")
//	// [schadensersatz]
package legal
