package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// Render produces the canonical textual representation of an application.
// The nested layout (pods under the application key) is the canonical
// output; Parse additionally accepts the legacy sibling-pods layout.
//
// Rendering is pure and deterministic: the same Application always renders
// to byte-identical text. All quoting and field ordering decisions live
// here, in one emitter, rather than at call sites.
func Render(app *Application) string {
	var e emitter
	e.line(0, "application:")
	e.line(1, "name: %s", quote(app.Name))
	e.line(1, "pods:")
	for i := range app.Pods {
		e.renderPod(&app.Pods[i])
	}
	return e.String()
}

// emitter is an indentation-aware line writer. Indentation is two spaces
// per level; sequence items prefix their first line with "- ".
type emitter struct {
	sb strings.Builder
}

func (e *emitter) line(indent int, format string, args ...any) {
	e.item(indent, false, format, args...)
}

func (e *emitter) item(indent int, dash bool, format string, args ...any) {
	for i := 0; i < indent; i++ {
		e.sb.WriteString("  ")
	}
	if dash {
		e.sb.WriteString("- ")
	}
	if len(args) == 0 {
		e.sb.WriteString(format)
	} else {
		fmt.Fprintf(&e.sb, format, args...)
	}
	e.sb.WriteByte('\n')
}

func (e *emitter) String() string {
	return e.sb.String()
}

// renderPod emits one pod block. Field order is fixed: name, image,
// servicePorts, vars, secrets. Empty optional collections are omitted.
func (e *emitter) renderPod(pod *Pod) {
	e.item(2, true, "name: %s", quote(pod.Name))
	e.line(3, "image: %s", quote(pod.Image))

	if len(pod.ServicePorts) > 0 {
		e.line(3, "servicePorts:")
		for _, port := range pod.ServicePorts {
			e.item(4, true, "%d", port)
		}
	}

	if len(pod.Vars) > 0 {
		e.line(3, "vars:")
		for _, v := range pod.Vars {
			e.line(4, "%s: %s", v.Name, quote(v.Value))
		}
	}

	if len(pod.Secrets) > 0 {
		e.line(3, "secrets:")
		for _, s := range pod.Secrets {
			e.item(4, true, "name: %s", quote(s.Name))
			e.line(5, "data: %s", quote(s.Data))
			e.line(5, "mountPath: %s", quote(s.MountPath))
			e.line(5, "fileName: %s", quote(s.FileName))
		}
	}
}

// quote renders a string scalar in double quotes. Go escaping is a
// compatible subset of YAML double-quoted style for the characters that
// appear in identifiers, image references, and opaque payloads.
func quote(s string) string {
	return strconv.Quote(s)
}
