/*
Package magick runs ImageMagick as a subprocess. It is the only place that
knows about image formats; the rest of image-audit sees parsed values.

Every call goes through a Runner, which enforces a wall-clock timeout and a
cap on each output stream. Breaching either kills the process and returns a
*CommandError whose Kind is KindTimeout or KindOverflow. A non-zero exit is
KindExit and its message is the tool's stderr.

# Operations

	tool := magick.New(magick.Options{Binary: "magick"})

	id, err := tool.Identify(ctx, path)         // width, height, capture day
	hash, err := tool.PerceptualHash(ctx, path) // hex string
	err = tool.Compress(ctx, magick.CompressTask{Input: in, Output: out, Quality: 88, PNGLevel: 9})

Argument templates are fixed per operation:

	identify -format "%w\t%h\t%[EXIF:DateTimeOriginal]\n" <path>
	<path> -define phash:colorspaces=sRGB -format "%#\n" info:
	<in> -interlace Plane -quality Q <out>          (jpg, jpeg)
	<in> -define png:compression-level=L <out>      (png)
	<in> -quality Q <out>                           (webp)
	<in> <out>                                      (anything else)

Output that does not parse returns a *ParseError.
*/
package magick
