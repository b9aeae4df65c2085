// Copyright 2025 Blink Labs Software
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

package badger

import "time"

func (d *BlobStoreBadger) DataDir() string {
	return d.dataDir
}

func (d *BlobStoreBadger) BlockCacheSize() uint64 {
	return d.blockCacheSize
}

func (d *BlobStoreBadger) IndexCacheSize() uint64 {
	return d.indexCacheSize
}

func (d *BlobStoreBadger) GcEnabled() bool {
	return d.gcEnabled
}

func (d *BlobStoreBadger) GcInterval() time.Duration {
	return d.gcInterval
}

func (d *BlobStoreBadger) SyncWrites() bool {
	return d.syncWrites
}
