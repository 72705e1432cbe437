package docmodel

import "encoding/json"

// VersionControl keeps serialized snapshots of one document. It references the
// document without owning it and shares its locking discipline.
type VersionControl struct {
	doc     *Document
	history [][]byte
}

func NewVersionControl(doc *Document) *VersionControl {
	return &VersionControl{doc: doc}
}

// RestoreHistory replaces the snapshot list, e.g. after loading from storage.
func (vc *VersionControl) RestoreHistory(history [][]byte) {
	vc.history = append([][]byte(nil), history...)
}

// SaveVersion appends the document's current state and returns its index.
func (vc *VersionControl) SaveVersion() (int, error) {
	snapshot, err := json.Marshal(vc.doc)
	if err != nil {
		return 0, err
	}
	vc.history = append(vc.history, snapshot)
	return len(vc.history) - 1, nil
}

// RevertToVersion replaces the document's whole state with snapshot k.
// Out-of-range k returns false and changes nothing. Reverting does not add history.
func (vc *VersionControl) RevertToVersion(k int) bool {
	if k < 0 || k >= len(vc.history) {
		return false
	}
	restored, err := UnmarshalDocument(vc.history[k])
	if err != nil {
		return false
	}
	*vc.doc = *restored
	return true
}

func (vc *VersionControl) Len() int { return len(vc.history) }

// Snapshot returns the serialized state saved at index k.
func (vc *VersionControl) Snapshot(k int) ([]byte, bool) {
	if k < 0 || k >= len(vc.history) {
		return nil, false
	}
	return vc.history[k], true
}
