package dom

// TextModel is an editor buffer exposing its current text.
type TextModel interface {
	Value() string
}

// LanguageReporter is implemented by text models that know their language.
type LanguageReporter interface {
	LanguageID() string
}

// Model is a TextModel with an optional language id.
type Model struct {
	Text     string
	Language string
}

// Value returns the buffer text.
func (m *Model) Value() string { return m.Text }

// LanguageID returns the editor language id, possibly empty.
func (m *Model) LanguageID() string { return m.Language }

type editorHost struct {
	models []TextModel
}

// InstallEditor exposes models as the page's code editor, replacing any
// previous editor. Calling it with no models installs an editor with no
// open buffers.
func (d *Document) InstallEditor(models ...TextModel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = &editorHost{models: append([]TextModel(nil), models...)}
}

// RemoveEditor detaches the editor host.
func (d *Document) RemoveEditor() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = nil
}

// EditorModels returns the open editor buffers. ok is false when the page
// has no editor at all.
func (d *Document) EditorModels() (models []TextModel, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.editor == nil {
		return nil, false
	}
	return append([]TextModel(nil), d.editor.models...), true
}
