package files

import (
	"chat-hub/errors"
	goerrors "errors"
	"io/fs"
	"net/http"
	"path"
)

// ServeHTTP serves a stored file by the name found at the end of the URL.
// Mount it behind http.StripPrefix on the base URL given to NewDiskStore.
func (d *DiskStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	name := path.Base(r.URL.Path)
	file, err := d.Open(name)
	if goerrors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), errors.MapToHTTPStatus(err))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), file)
}
