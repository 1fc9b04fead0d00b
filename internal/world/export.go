package world

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ выгружает объекты мешей в формате Wavefront OBJ, по группе на материал.
// Индексы OBJ начинаются с единицы и сквозные для всего файла.
func WriteOBJ(w io.Writer, objects []*MeshObject) error {
	bw := bufio.NewWriter(w)

	var offset uint32 = 1
	for _, obj := range objects {
		mesh := obj.Render
		if mesh == nil || mesh.VertexCount() == 0 {
			continue
		}

		fmt.Fprintf(bw, "g %s\n", obj.Name)
		for _, v := range mesh.Vertices {
			fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
		}
		for _, n := range mesh.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			a := mesh.Indices[i] + offset
			b := mesh.Indices[i+1] + offset
			c := mesh.Indices[i+2] + offset
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		}
		offset += uint32(mesh.VertexCount())
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ошибка записи OBJ: %w", err)
	}
	return nil
}
